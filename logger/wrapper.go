package logger

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"runtime/debug"
	"strings"

	"github.com/rs/zerolog"
)

// Supervise runs executable as a child process and relays its stderr. JSON log lines are
// copied to stdout, other lines are logged as errors, and a Go panic trace is collected and
// reported as one entry when the child exits. It returns the child's exit code.
func Supervise(executable string, arg ...string) int {
	taggerLogger := NewLogger("Supervisor")
	defer handlePanic(taggerLogger)

	r, w, err := os.Pipe()
	if err != nil {
		taggerLogger.Err(err).Msg("Could not create pipe for logs")
		return 1
	}

	cmd := exec.Command(executable, arg...)
	cmd.Stderr = w
	cmd.Stdout = os.Stdout
	cmd.Env = os.Environ()
	if err = cmd.Start(); err != nil {
		taggerLogger.Err(err).Msg("Could not launch main process")
		return 1
	}
	// the child holds its own copy of the write end
	_ = w.Close()

	relay := newLogRelay(os.Stdout, taggerLogger)
	if err = relay.copyFrom(r); err != nil {
		taggerLogger.Err(err).Msg("Error scanning piped main process's stderr")
	}
	return relay.exit(exitCode(cmd.Wait()), taggerLogger)
}

func exitCode(err error) int {
	if err == nil {
		return 0
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.ExitCode()
	}
	return 1
}

type logRelay struct {
	out          io.Writer
	taggerLogger zerolog.Logger
	foundPanic   bool
	panicLogs    strings.Builder
}

func newLogRelay(out io.Writer, taggerLogger zerolog.Logger) *logRelay {
	return &logRelay{out: out, taggerLogger: taggerLogger}
}

func (relay *logRelay) copyFrom(r io.Reader) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		relay.handleLine(scanner.Bytes())
	}
	return scanner.Err()
}

func (relay *logRelay) handleLine(line []byte) {
	text := string(line)
	if !relay.foundPanic && strings.HasPrefix(text, "panic") {
		relay.foundPanic = true
	}
	switch {
	case len(line) == 0:
	case relay.foundPanic:
		relay.panicLogs.WriteString(text)
		relay.panicLogs.WriteByte('\n')
	case isJSON(line):
		_, _ = fmt.Fprintln(relay.out, text)
	default:
		relay.taggerLogger.Error().Msgf("Got log line that is not JSON formatted: '%s'", text)
	}
}

func (relay *logRelay) exit(code int, taggerLogger zerolog.Logger) int {
	switch {
	case code == 0:
		taggerLogger.Info().Msg("Exited with code 0")
	case relay.foundPanic:
		taggerLogger.WithLevel(zerolog.FatalLevel).
			Err(errors.New(relay.panicLogs.String())).
			Msgf("Panicked and exited with code: %d", code)
	default:
		taggerLogger.Error().Msgf("Exited with code: %d", code)
	}
	return code
}

func handlePanic(taggerLogger zerolog.Logger) {
	r := recover()
	if r == nil {
		return
	}
	taggerLogger.Fatal().
		Caller().
		Str("error", fmt.Sprint(r)).
		Str("stack_trace", string(debug.Stack())).
		Msg("Program panicked and exited")
}

func isJSON(b []byte) bool {
	var js json.RawMessage
	err := json.Unmarshal(b, &js)
	return err == nil && js != nil
}
