package parser

import (
	"io"

	"git.lost.host/meutraa/gdpractice/internal/game"
)

type Parser interface {
	ParseMap(name string, r io.Reader) (*game.Map, error)
	ParseLeniency(r io.Reader) (*game.LeniencyConfig, error)
	ParseResult(r io.Reader) (*game.Result, error)
}
