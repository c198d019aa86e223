package cli

import (
	"bytes"
	"fmt"

	"github.com/BurntSushi/toml"

	sageconfig "github.com/sagekernel/sagekernel/internal/config"
	"github.com/sagekernel/sagekernel/internal/domain"
	"github.com/sagekernel/sagekernel/internal/infra/diagnostics"
	"github.com/sagekernel/sagekernel/internal/model"
)

// loadEffectiveConfig reads config.toml (or defaults) and wires a sink
// from it, used by run/inspect so both subcommands observe the same
// diagnostics gating.
func loadEffectiveConfig() (sageconfig.Config, domain.DiagnosticsSink, func(), error) {
	cfg, err := sageconfig.Load()
	if err != nil {
		return cfg, nil, func() {}, err
	}
	if len(cfg.Diagnostics.Keys) == 0 {
		return cfg, domain.NopSink{}, func() {}, nil
	}
	tracer, err := diagnostics.Open(cfg.Diagnostics)
	if err != nil {
		return cfg, nil, func() {}, fmt.Errorf("open diagnostics: %w", err)
	}
	return cfg, tracer, func() { tracer.Close() }, nil
}

// buildDemoModel returns a minimal Model with a single master task — the
// `cmd/` wiring example SPEC_FULL §1 scopes in ("a minimal cmd/ wiring
// example").
func buildDemoModel(cfg sageconfig.Config, sink domain.DiagnosticsSink) *model.Model {
	m := model.New(sink)
	m.Exec.SetIgnoreCausalityViolations(cfg.Kernel.IgnoreCausalityViolations)

	pre := m.Tasks.AddVertex(domain.RolePre)
	post := m.Tasks.AddVertex(domain.RolePost)
	edge := m.Tasks.AddEdge("demo-task", pre, post, func(ctrl domain.EventController, ctx *domain.GraphContext) bool {
		return true
	})
	m.RegisterMasterTask(edge)
	return m
}

func encodeConfig(cfg sageconfig.Config) (string, error) {
	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(cfg); err != nil {
		return "", err
	}
	return buf.String(), nil
}
