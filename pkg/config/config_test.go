package config_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xplshn/gclean/pkg/config"
)

func TestDefaults(t *testing.T) {
	cfg := config.NewConfig()
	assert.False(t, cfg.IsFeatureEnabled(config.FeatVerify))
	assert.True(t, cfg.IsFeatureEnabled(config.FeatStmtExpr))
	assert.True(t, cfg.IsWarningEnabled(config.WarnUnusedValue))
	assert.False(t, cfg.IsWarningEnabled(config.WarnStaticLiteral))
	assert.False(t, cfg.IsWarningEnabled(config.WarnPedantic))
	assert.Equal(t, 8, cfg.WordSize)

	assert.Len(t, cfg.FeatureMap, int(config.FeatCount))
	assert.Len(t, cfg.WarningMap, int(config.WarnCount))
	assert.Equal(t, config.FeatGCCCond, cfg.FeatureMap["gcc-cond"])
}

func TestApplyStd(t *testing.T) {
	tests := []struct {
		std                        string
		stmtExpr, quantifiers, lit bool
	}{
		{"c99", false, false, true},
		{"gnu99", true, false, true},
		{"cprover", true, true, true},
	}
	for _, tt := range tests {
		t.Run(tt.std, func(t *testing.T) {
			cfg := config.NewConfig()
			require.NoError(t, cfg.ApplyStd(tt.std))
			assert.Equal(t, tt.std, cfg.StdName)
			assert.Equal(t, tt.stmtExpr, cfg.IsFeatureEnabled(config.FeatStmtExpr))
			assert.Equal(t, tt.stmtExpr, cfg.IsFeatureEnabled(config.FeatGCCCond))
			assert.Equal(t, tt.quantifiers, cfg.IsFeatureEnabled(config.FeatQuantifiers))
			assert.Equal(t, tt.quantifiers, cfg.IsFeatureEnabled(config.FeatImplies))
			assert.Equal(t, tt.lit, cfg.IsFeatureEnabled(config.FeatCompoundLiterals))
		})
	}

	err := config.NewConfig().ApplyStd("c11")
	assert.ErrorContains(t, err, "unsupported standard 'c11'")
}

func TestApplyFlags(t *testing.T) {
	cfg := config.NewConfig()
	cfg.ApplyFlags([]string{"Wno-static-literal", "Wall", "Fverify", "Fno-implies", "Wbogus"})

	assert.False(t, cfg.IsWarningEnabled(config.WarnStaticLiteral), "specific flags win over -Wall")
	assert.True(t, cfg.IsWarningEnabled(config.WarnExtra))
	assert.False(t, cfg.IsWarningEnabled(config.WarnPedantic), "-Wall leaves pedantic alone")
	assert.True(t, cfg.IsFeatureEnabled(config.FeatVerify))
	assert.False(t, cfg.IsFeatureEnabled(config.FeatImplies))

	cfg.ApplyFlags([]string{"Wunused-value", "Wno-all"})
	assert.True(t, cfg.IsWarningEnabled(config.WarnUnusedValue))
	assert.False(t, cfg.IsWarningEnabled(config.WarnImplicitDecl))
}

func TestSetTarget(t *testing.T) {
	cfg := config.NewConfig()
	cfg.SetTarget("linux", "386", "i386")
	assert.Equal(t, "i386", cfg.Target)
	assert.Equal(t, 4, cfg.WordSize)

	cfg.SetTarget("linux", "riscv64", "rv64")
	assert.Equal(t, 8, cfg.WordSize)

	cfg.SetTarget("linux", "amd64", "")
	assert.NotEmpty(t, cfg.Target)
	assert.Equal(t, "amd64", cfg.TargetArch)
}
