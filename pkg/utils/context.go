package utils

import (
	"context"

	"gig-booking/internal/data/entity"
)

type contextKey string

const (
	ActorKey      contextKey = "actor"
	ClientMetaKey contextKey = "client_meta"
)

func SetActorContext(ctx context.Context, actor entity.Actor) context.Context {
	return context.WithValue(ctx, ActorKey, actor)
}

func GetActorFromContext(ctx context.Context) (entity.Actor, bool) {
	actor, ok := ctx.Value(ActorKey).(entity.Actor)
	return actor, ok
}

func SetClientMetaContext(ctx context.Context, meta entity.ClientMeta) context.Context {
	return context.WithValue(ctx, ClientMetaKey, meta)
}

// GetClientMetaFromContext returns empty metadata when none was captured.
func GetClientMetaFromContext(ctx context.Context) entity.ClientMeta {
	meta, _ := ctx.Value(ClientMetaKey).(entity.ClientMeta)
	return meta
}
