// Package testdata holds a small map shared by tests.
package testdata

import (
	_ "embed"
	"encoding/json"

	"git.lost.host/meutraa/gdpractice/internal/game"
)

var (
	//go:embed map.json
	MapJSON []byte
	//go:embed leniency.json
	LeniencyJSON []byte
)

func GetMap() (*game.Map, error) {
	var m game.Map
	if err := json.Unmarshal(MapJSON, &m); nil != err {
		return nil, err
	}
	return &m, nil
}

func GetLeniency() (*game.LeniencyConfig, error) {
	var c game.LeniencyConfig
	if err := json.Unmarshal(LeniencyJSON, &c); nil != err {
		return nil, err
	}
	return &c, nil
}
