package api

import (
	"context"

	"git.lost.host/meutraa/gdpractice/internal/game"
)

// Source supplies maps and their leniency configuration.
type Source interface {
	Maps(ctx context.Context) ([]game.MapInfo, error)
	Load(ctx context.Context, name string) (*game.Map, error)
	Leniency(ctx context.Context, name string) (*game.LeniencyConfig, error)
	Music(ctx context.Context, name string) (game.MusicInfo, error)
}

// Evaluator is the authoritative scorer of an attempt.
type Evaluator interface {
	Evaluate(ctx context.Context, req game.EvaluationRequest) (*game.Result, error)
	Export(ctx context.Context, req game.EvaluationRequest) (*game.Export, error)
}
