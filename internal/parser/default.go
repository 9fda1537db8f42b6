package parser

import (
	"bytes"
	"embed"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"git.lost.host/meutraa/gdpractice/internal/game"
)

//go:embed schemas/*.json
var schemaFiles embed.FS

// DefaultParser decodes the map source and evaluator wire formats. Every
// payload is checked against its schema before it is decoded.
type DefaultParser struct {
	mapSchema      *jsonschema.Schema
	leniencySchema *jsonschema.Schema
	resultSchema   *jsonschema.Schema
}

func compile(name string) (*jsonschema.Schema, error) {
	data, err := schemaFiles.ReadFile("schemas/" + name)
	if nil != err {
		return nil, err
	}
	url := "mem://schemas/" + name
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource(url, bytes.NewReader(data)); nil != err {
		return nil, fmt.Errorf("add schema resource %s: %w", name, err)
	}
	schema, err := compiler.Compile(url)
	if nil != err {
		return nil, fmt.Errorf("compile schema %s: %w", name, err)
	}
	return schema, nil
}

func New() (*DefaultParser, error) {
	p := &DefaultParser{}
	var err error
	if p.mapSchema, err = compile("map.json"); nil != err {
		return nil, err
	}
	if p.leniencySchema, err = compile("leniency.json"); nil != err {
		return nil, err
	}
	if p.resultSchema, err = compile("result.json"); nil != err {
		return nil, err
	}
	return p, nil
}

// decode validates data against schema, then decodes it into v.
func decode(schema *jsonschema.Schema, r io.Reader, v interface{}) error {
	data, err := io.ReadAll(r)
	if nil != err {
		return err
	}
	var doc interface{}
	if err := json.Unmarshal(data, &doc); nil != err {
		return fmt.Errorf("malformed json: %v: %w", err, game.ErrInvalidConfiguration)
	}
	if err := schema.Validate(doc); nil != err {
		return fmt.Errorf("%v: %w", err, game.ErrInvalidConfiguration)
	}
	return json.Unmarshal(data, v)
}

func (p *DefaultParser) ParseMap(name string, r io.Reader) (*game.Map, error) {
	var m game.Map
	if err := decode(p.mapSchema, r, &m); nil != err {
		return nil, fmt.Errorf("map %s: %w", name, err)
	}
	if m.Name == "" {
		m.Name = name
	}
	// Idx is the identity, position in the list is not
	sort.SliceStable(m.Events, func(i, j int) bool {
		return m.Events[i].T < m.Events[j].T
	})
	sort.SliceStable(m.Notes, func(i, j int) bool {
		return m.Notes[i].StartT < m.Notes[j].StartT
	})
	if m.Duration == 0 {
		if last, ok := m.LastEventTime(); ok {
			m.Duration = last
		}
	}
	return &m, nil
}

func (p *DefaultParser) ParseLeniency(r io.Reader) (*game.LeniencyConfig, error) {
	var c game.LeniencyConfig
	if err := decode(p.leniencySchema, r, &c); nil != err {
		return nil, fmt.Errorf("leniency: %w", err)
	}
	if err := c.Validate(); nil != err {
		return nil, err
	}
	return &c, nil
}

func (p *DefaultParser) ParseResult(r io.Reader) (*game.Result, error) {
	var res game.Result
	if err := decode(p.resultSchema, r, &res); nil != err {
		return nil, fmt.Errorf("evaluation result: %w", err)
	}
	return &res, nil
}

// ParseFile reads a map stored on disk. The map is named after the file.
func (p *DefaultParser) ParseFile(file string) (*game.Map, error) {
	f, err := os.Open(file)
	if nil != err {
		return nil, err
	}
	defer f.Close()
	name := strings.TrimSuffix(filepath.Base(file), filepath.Ext(file))
	return p.ParseMap(name, f)
}

func (p *DefaultParser) ParseLeniencyFile(file string) (*game.LeniencyConfig, error) {
	f, err := os.Open(file)
	if nil != err {
		return nil, err
	}
	defer f.Close()
	return p.ParseLeniency(f)
}
