package execshell

import (
	"bufio"
	"errors"
	"io"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const (
	lineTerminatorConstant         = '\n'
	carriageReturnSuffixConstant   = "\r"
	invalidUTF8ReplacementConstant = "\uFFFD"
	logFieldStreamConstant         = "stdio_stream"
	logFieldCommandConstant        = "command"
)

type outputStream struct {
	name   StreamName
	reader io.Reader
}

// streamRelay forwards child output lines to a logger at info level.
type streamRelay struct {
	logger  *zap.Logger
	command ShellCommand
	abort   func()
}

func newStreamRelay(logger *zap.Logger, command ShellCommand) streamRelay {
	return streamRelay{logger: logger, command: command}
}

// withAbort registers a callback invoked when a stream can no longer be read. The
// unread pipe would otherwise fill up and leave the child blocked on write.
func (relay streamRelay) withAbort(abort func()) streamRelay {
	relay.abort = abort
	return relay
}

// drain reads every stream to end-of-stream on its own goroutine and returns once all of
// them are exhausted. The first read failure is returned.
func (relay streamRelay) drain(streams []outputStream) error {
	var readers errgroup.Group
	for _, stream := range streams {
		readers.Go(func() error {
			return relay.relayStream(stream)
		})
	}
	return readers.Wait()
}

func (relay streamRelay) relayStream(stream outputStream) error {
	streamLogger := relay.logger.With(
		zap.String(logFieldStreamConstant, string(stream.name)),
		zap.String(logFieldCommandConstant, string(relay.command.Name)),
	)

	bufferedReader := bufio.NewReader(stream.reader)
	for {
		line, readError := bufferedReader.ReadString(lineTerminatorConstant)
		if len(line) > 0 {
			streamLogger.Info(normalizeLine(line))
		}
		if readError == nil {
			continue
		}
		if errors.Is(readError, io.EOF) {
			return nil
		}

		if relay.abort != nil {
			relay.abort()
		}
		return StreamReadError{Command: relay.command, Stream: stream.name, Cause: readError}
	}
}

func normalizeLine(line string) string {
	trimmedLine := strings.TrimSuffix(line, string(lineTerminatorConstant))
	trimmedLine = strings.TrimSuffix(trimmedLine, carriageReturnSuffixConstant)
	if !utf8.ValidString(trimmedLine) {
		return strings.ToValidUTF8(trimmedLine, invalidUTF8ReplacementConstant)
	}
	return trimmedLine
}
