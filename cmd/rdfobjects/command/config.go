package command

import (
	"context"
	"os"
	"os/signal"

	"github.com/spf13/viper"

	"github.com/cayleygraph/rdfobjects/clog"
	"github.com/cayleygraph/rdfobjects/internal/config"
	"github.com/cayleygraph/rdfobjects/internal/db"
	"github.com/cayleygraph/rdfobjects/model"
)

const (
	KeyConfig = "config"

	KeyEndpoint = "endpoint.url"
	KeyHeaders  = "endpoint.headers"
	KeyTimeout  = "endpoint.timeout"

	KeyShapes       = "shapes.path"
	KeyShapesFormat = "shapes.format"
	KeyMainShape    = "shapes.main"

	KeyVocab    = "names.vocab"
	KeyPrefixes = "names.prefixes"

	KeyNoOrder  = "query.no_order"
	KeyTwoPhase = "query.two_phase"
	KeyMaxDepth = "query.max_depth"
	KeyCache    = "query.cache_size"
)

// LoadConfig reads the config file, if any, and overrides its values with
// the ones set by flags or environment.
func LoadConfig() (*config.Config, error) {
	cfg, err := config.Load(viper.GetString(KeyConfig))
	if err != nil {
		return nil, err
	}
	if viper.IsSet(KeyEndpoint) {
		cfg.Endpoint = viper.GetString(KeyEndpoint)
	}
	if viper.IsSet(KeyHeaders) {
		cfg.Headers = viper.GetStringMapString(KeyHeaders)
	}
	if viper.IsSet(KeyTimeout) || cfg.Timeout == 0 {
		cfg.Timeout = viper.GetDuration(KeyTimeout)
	}
	if viper.IsSet(KeyShapes) {
		cfg.Shapes = viper.GetString(KeyShapes)
	}
	if viper.IsSet(KeyShapesFormat) {
		cfg.ShapesFormat = viper.GetString(KeyShapesFormat)
	}
	if viper.IsSet(KeyMainShape) {
		cfg.MainShape = viper.GetString(KeyMainShape)
	}
	if viper.IsSet(KeyVocab) {
		cfg.Vocab = viper.GetString(KeyVocab)
	}
	if viper.IsSet(KeyPrefixes) {
		if cfg.Prefixes == nil {
			cfg.Prefixes = make(map[string]string)
		}
		for k, v := range viper.GetStringMapString(KeyPrefixes) {
			cfg.Prefixes[k] = v
		}
	}
	cfg.NoOrder = cfg.NoOrder || viper.GetBool(KeyNoOrder)
	cfg.TwoPhase = cfg.TwoPhase || viper.GetBool(KeyTwoPhase)
	if viper.IsSet(KeyMaxDepth) {
		cfg.MaxDepth = viper.GetInt(KeyMaxDepth)
	}
	if viper.IsSet(KeyCache) {
		cfg.CacheSize = viper.GetInt(KeyCache)
	}
	return cfg, nil
}

func openModel(ctx context.Context) (*model.Model, *config.Config, error) {
	cfg, err := LoadConfig()
	if err != nil {
		return nil, nil, err
	}
	clog.Infof("using endpoint %q with shapes %q", cfg.Endpoint, cfg.Shapes)
	m, err := db.Open(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}
	return m, cfg, nil
}

func getContext() (context.Context, func()) {
	ctx, cancel := context.WithCancel(context.Background())
	ch := make(chan os.Signal, 1)
	signal.Notify(ch, os.Interrupt)
	go func() {
		select {
		case <-ch:
		case <-ctx.Done():
		}
		signal.Stop(ch)
		cancel()
	}()
	return ctx, cancel
}
