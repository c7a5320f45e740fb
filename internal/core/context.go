package core

import "context"

type contextKey string

const ctxKeyWorkspace contextKey = "workspace"

// ContextWithWorkspace attaches a workspace to ctx.
func ContextWithWorkspace(ctx context.Context, ws *Workspace) context.Context {
	return context.WithValue(ctx, ctxKeyWorkspace, ws)
}

// WorkspaceFromContext returns the workspace attached to ctx, or nil.
func WorkspaceFromContext(ctx context.Context) *Workspace {
	if ws, ok := ctx.Value(ctxKeyWorkspace).(*Workspace); ok {
		return ws
	}
	return nil
}
