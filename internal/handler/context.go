package handler

type ContextKey string

var (
	RoleCtxKey         ContextKey = "role"
	SubCtxKey          ContextKey = "sub"
	MyInfoCtx          ContextKey = "myInfo"
	StationCtx         ContextKey = "station"
	AssignmentDraftCtx ContextKey = "assignmentDraft"
)
