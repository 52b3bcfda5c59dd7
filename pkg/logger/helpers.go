package logger

import (
	"context"

	"github.com/dustin/go-humanize"
	"github.com/rs/zerolog"
)

// LogPage logs one fetched listing page
func LogPage(l Logger, kind string, page, pages, fetched, fresh int) {
	l.InfoWithFields("Fetched listing page", map[string]interface{}{
		"kind":    kind,
		"page":    page,
		"pages":   pages,
		"fetched": fetched,
		"new":     fresh,
	})
}

// LogPhotoPart logs the outcome of one metadata call for a photo. A failed
// part is logged at error level but is never fatal.
func LogPhotoPart(l Logger, photoID, part string, err error) {
	if err != nil {
		l.WithError(err).ErrorWithFields("Couldn't fetch photo "+part, map[string]interface{}{
			"photo_id": photoID,
			"part":     part,
		})
		return
	}
	l.DebugWithFields("Fetched photo "+part, map[string]interface{}{
		"photo_id": photoID,
		"part":     part,
	})
}

// LogDownload logs a media download result
func LogDownload(l Logger, photoID, label string, size int64, err error) {
	fields := map[string]interface{}{
		"photo_id": photoID,
		"size":     label,
	}

	if err != nil {
		l.WithError(err).ErrorWithFields("Media download failed", fields)
		return
	}

	fields["bytes"] = humanize.Bytes(uint64(size))
	l.InfoWithFields("Media downloaded", fields)
}

// NewNopLogger creates a logger that discards everything
func NewNopLogger() Logger {
	return &nopLogger{}
}

type nopLogger struct{}

func (n *nopLogger) Debug(msg string)                                          {}
func (n *nopLogger) Info(msg string)                                           {}
func (n *nopLogger) Warn(msg string)                                           {}
func (n *nopLogger) Error(msg string)                                          {}
func (n *nopLogger) WithField(key string, value interface{}) Logger            { return n }
func (n *nopLogger) WithFields(fields map[string]interface{}) Logger           { return n }
func (n *nopLogger) WithError(err error) Logger                                { return n }
func (n *nopLogger) WithContext(ctx context.Context) Logger                    { return n }
func (n *nopLogger) DebugWithFields(msg string, fields map[string]interface{}) {}
func (n *nopLogger) InfoWithFields(msg string, fields map[string]interface{})  {}
func (n *nopLogger) WarnWithFields(msg string, fields map[string]interface{})  {}
func (n *nopLogger) ErrorWithFields(msg string, fields map[string]interface{}) {}
func (n *nopLogger) GetZerolog() *zerolog.Logger {
	nop := zerolog.Nop()
	return &nop
}
