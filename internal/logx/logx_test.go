package logx

import (
	"bytes"
	"strings"
	"testing"

	"go.uber.org/zap"
)

func TestNew_Level(t *testing.T) {
	var buf bytes.Buffer
	log := New(false, &buf)
	log.Debug("隐藏")
	log.Info("可见", zap.Int("n", 1))
	_ = log.Sync()

	out := buf.String()
	if strings.Contains(out, "隐藏") {
		t.Fatalf("非 verbose 不应输出 Debug：%q", out)
	}
	if !strings.Contains(out, "INFO") || !strings.Contains(out, "可见") || !strings.Contains(out, `"n": 1`) {
		t.Fatalf("期望 console 格式的 Info 行，实际：%q", out)
	}

	buf.Reset()
	log = New(true, &buf)
	log.Debug("调试")
	_ = log.Sync()
	if !strings.Contains(buf.String(), "DEBUG") {
		t.Fatalf("verbose 应输出 Debug：%q", buf.String())
	}
}
