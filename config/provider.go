package config

import (
	"fmt"

	"github.com/samber/do/v2"
)

// ProvideLoader registers a *Loader built by the given builder.
//
//	do.Provide(injector, config.ProvideLoader(config.NewLoaderBuilder().WithEnvPrefix("TOKENAUTH")))
//	loader := do.MustInvoke[*config.Loader](injector)
func ProvideLoader(b *LoaderBuilder) func(do.Injector) (*Loader, error) {
	return func(do.Injector) (*Loader, error) {
		loader, err := b.Build()
		if err != nil {
			return nil, fmt.Errorf("config loader build failed: %w", err)
		}
		return loader, nil
	}
}
