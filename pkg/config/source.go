package config

import (
	"context"
)

// Source produces a Configuration on demand.
type Source interface {
	Load(ctx context.Context) (Configuration, error)
	Name() string
}

// Fetcher is the configuration server client: it returns the defaults that
// apply to one client/application pair, already resolved across tiers.
type Fetcher interface {
	FetchDefaults(ctx context.Context, clientName, applicationName string) (map[string]Parameter, error)
}

// FetcherFunc adapts a function to the Fetcher interface.
type FetcherFunc func(ctx context.Context, clientName, applicationName string) (map[string]Parameter, error)

// FetchDefaults implements Fetcher.
func (f FetcherFunc) FetchDefaults(ctx context.Context, clientName, applicationName string) (map[string]Parameter, error) {
	return f(ctx, clientName, applicationName)
}

// FileSource loads configuration from a local file.
type FileSource struct {
	Path string
}

// NewFileSource creates a source reading path.
func NewFileSource(path string) *FileSource {
	return &FileSource{Path: path}
}

// Load implements Source.
func (s *FileSource) Load(ctx context.Context) (Configuration, error) {
	if err := ctx.Err(); err != nil {
		return Configuration{}, err
	}
	return ParseFile(s.Path)
}

// Name implements Source.
func (s *FileSource) Name() string { return s.Path }

// FetcherSource adapts a Fetcher to the Source interface.
type FetcherSource struct {
	Fetcher     Fetcher
	Client      string
	Application string
}

// Load implements Source.
func (s *FetcherSource) Load(ctx context.Context) (Configuration, error) {
	keys, err := s.Fetcher.FetchDefaults(ctx, s.Client, s.Application)
	if err != nil {
		return Configuration{}, NewFetchError(s.Client, s.Application, err)
	}
	out := NewConfiguration()
	for path, p := range keys {
		if err := out.Set(path, p); err != nil {
			return Configuration{}, err
		}
	}
	return out, nil
}

// Name implements Source.
func (s *FetcherSource) Name() string {
	return "config-server:" + s.Client + "/" + s.Application
}

// LayeredSource merges several sources, least specific first. Each layer is
// treated as a tier named after its source.
type LayeredSource struct {
	Layers []Source
}

// Load implements Source. A failing layer fails the whole load.
func (s *LayeredSource) Load(ctx context.Context) (Configuration, error) {
	tiers := make([]Tier, 0, len(s.Layers))
	for _, layer := range s.Layers {
		c, err := layer.Load(ctx)
		if err != nil {
			return Configuration{}, err
		}
		tiers = append(tiers, Tier{Name: layer.Name(), Keys: c.Keys})
	}
	return Merge(tiers...)
}

// Name implements Source.
func (s *LayeredSource) Name() string {
	name := "layered"
	for _, l := range s.Layers {
		name += "|" + l.Name()
	}
	return name
}
