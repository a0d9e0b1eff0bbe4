// internal/logging/logging.go
package logging

import (
	"encoding/json"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

var (
	mu      sync.Mutex
	logFile *os.File
)

// Init sends the standard logger to stdout and, when logPath is set, to an
// append-mode log file.
func Init(logPath string) error {
	return initWriters(logPath, true)
}

// InitFile sends the standard logger to the log file only. Without a path all
// output is discarded. Terminal UIs use it so log lines do not corrupt the
// screen.
func InitFile(logPath string) error {
	return initWriters(logPath, false)
}

func initWriters(logPath string, stdout bool) error {
	mu.Lock()
	defer mu.Unlock()

	if logFile != nil {
		_ = logFile.Close()
		logFile = nil
	}

	var writers []io.Writer
	if stdout {
		writers = append(writers, os.Stdout)
	}

	if logPath != "" {
		if dir := filepath.Dir(logPath); dir != "" && dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return err
			}
		}
		file, err := os.OpenFile(logPath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			return err
		}
		logFile = file
		writers = append(writers, logFile)
	}

	if len(writers) == 0 {
		log.SetOutput(io.Discard)
		return nil
	}
	log.SetOutput(io.MultiWriter(writers...))
	return nil
}

// Close closes the log file and restores stderr output.
func Close() error {
	mu.Lock()
	defer mu.Unlock()
	if logFile == nil {
		return nil
	}
	log.SetOutput(os.Stderr)
	err := logFile.Close()
	logFile = nil
	return err
}

func LogEvent(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	log.Println(msg)
}

// RenderStats summarises one rendered mode.
type RenderStats struct {
	Supports  int
	Citations int
	Wrapped   int
}

// LogRender records one rendered mode.
func LogRender(mode string, stats RenderStats) {
	log.Println(buildRenderMessage(mode, stats))
}

func buildRenderMessage(mode string, stats RenderStats) string {
	mode = strings.TrimSpace(mode)
	if mode == "" {
		mode = "unknown"
	}
	return fmt.Sprintf("[RENDER] mode=%s supports=%d citations=%d wrapped=%d",
		mode, stats.Supports, stats.Citations, stats.Wrapped)
}

// LogRequest records a decoded request document.
func LogRequest(source, shape string, payload any) {
	log.Println(buildRequestMessage(source, shape, payload))
}

func buildRequestMessage(source, shape string, payload any) string {
	sourceValue := strings.TrimSpace(source)
	if sourceValue == "" {
		sourceValue = "stdin"
	}
	shapeValue := strings.TrimSpace(shape)
	if shapeValue == "" {
		shapeValue = "unknown"
	}
	parts := []string{"[REQUEST]"}
	parts = append(parts, fmt.Sprintf("source=%s", sourceValue))
	parts = append(parts, fmt.Sprintf("shape=%s", shapeValue))
	parts = append(parts, fmt.Sprintf("payload=%s", formatPayload(payload)))
	return strings.Join(parts, " ")
}

func formatPayload(payload any) string {
	switch v := payload.(type) {
	case nil:
		return "null"
	case string:
		if strings.TrimSpace(v) == "" {
			return `""`
		}
		return v
	case []byte:
		if len(v) == 0 {
			return "[]"
		}
		return string(v)
	case fmt.Stringer:
		return v.String()
	default:
		data, err := json.Marshal(v)
		if err != nil {
			return fmt.Sprintf("%v", v)
		}
		return string(data)
	}
}
