package gateway

import (
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/calder-ai/uniproxy/internal/config"
	"github.com/calder-ai/uniproxy/internal/llm"
)

// BuildRegistry constructs provider handles from configuration. Invalid or
// disabled entries are skipped with a log line rather than failing startup;
// an empty registry is legal and surfaces per-request as NoProviderConfigured.
func BuildRegistry(providers []config.ProviderConfig, log *zap.Logger) Registry {
	var reg Registry
	validate := validator.New()

	for _, pCfg := range providers {
		if !pCfg.Enabled {
			continue
		}

		if err := validate.Struct(&pCfg); err != nil {
			log.Warn("Skipping provider with invalid configuration",
				zap.String("id", pCfg.ID),
				zap.Error(err),
			)
			continue
		}

		factoryFunc, err := llm.Get(pCfg.Type)
		if err != nil {
			log.Error("Unknown provider type", zap.String("type", pCfg.Type))
			continue
		}

		instance, err := factoryFunc(pCfg)
		if err != nil {
			log.Warn("Skipping provider",
				zap.String("id", pCfg.ID),
				zap.Error(err),
			)
			continue
		}

		switch instance.Type() {
		case string(llm.OpenAI):
			if reg.Direct != nil {
				log.Warn("Duplicate direct provider, keeping first", zap.String("id", pCfg.ID))
				continue
			}
			reg.Direct = instance
		case string(llm.Azure):
			if reg.Gateway != nil {
				log.Warn("Duplicate gateway provider, keeping first", zap.String("id", pCfg.ID))
				continue
			}
			reg.Gateway = instance
		}

		log.Info("Registered provider",
			zap.String("id", pCfg.ID),
			zap.String("type", pCfg.Type),
		)
	}

	if reg.Direct == nil && reg.Gateway == nil {
		log.Warn("No providers were registered. Completion endpoints will reject all requests.")
	}

	return reg
}
