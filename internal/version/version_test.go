package version

import (
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGet(t *testing.T) {
	assert.Regexp(t, `^\d+\.\d+\.\d+`, Get())
}

func TestBuild(t *testing.T) {
	info := Build()
	assert.Equal(t, Get(), info.Version)
	assert.Equal(t, runtime.Version(), info.GoVersion)
	assert.Contains(t, info.String(), "tandem version "+Get())
}

func TestInfoString_Revision(t *testing.T) {
	info := Info{Version: "1.2.3", GoVersion: "go1.24.0", Platform: "linux/amd64", Revision: "0123456789abcdef", Modified: true}
	assert.Equal(t, "tandem version 1.2.3 (go1.24.0, linux/amd64) 0123456789ab-dirty", info.String())
}
