package romanize

import (
	"errors"
	"fmt"
	"strings"
)

// Kind classifies a romanization failure. The kind is what the end user
// sees in place of the lyrics.
type Kind string

const (
	TabLoadTimeout      Kind = "TabLoadTimeout"
	ElementNotFound     Kind = "ElementNotFound"
	NoTranslationFound  Kind = "NoTranslationFound"
	ExtractionFailed    Kind = "ExtractionFailed"
	MessageChannelError Kind = "MessageChannelError"
	LyricsNotFound      Kind = "LyricsNotFound"
)

var kinds = []Kind{
	TabLoadTimeout, ElementNotFound, NoTranslationFound,
	ExtractionFailed, MessageChannelError, LyricsNotFound,
}

// Error makes a Kind usable as an errors.Is target.
func (k Kind) Error() string { return string(k) }

// Error is a typed failure. It unwraps to both its Kind and its cause, so
// errors.Is(err, romanize.TabLoadTimeout) and errors.Is(err, cause) both
// hold.
type Error struct {
	Kind Kind
	Op   string
	Err  error
}

// Errorf builds an *Error with a formatted cause.
func Errorf(kind Kind, op, format string, args ...any) *Error {
	return &Error{Kind: kind, Op: op, Err: fmt.Errorf(format, args...)}
}

// Wrap attaches kind and op to err. A nil err stays nil.
func Wrap(kind Kind, op string, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Kind: kind, Op: op, Err: err}
}

func (e *Error) Error() string {
	var b strings.Builder
	if e.Op != "" {
		b.WriteString(e.Op)
		b.WriteString(": ")
	}
	b.WriteString(string(e.Kind))
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *Error) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

// KindOf returns the outermost Kind carried by err, or "" when err is not
// a typed failure.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	var k Kind
	if errors.As(err, &k) {
		return k
	}
	return ""
}

// Reason renders err as the typed reason string that crosses the message
// channel: "<Kind>: <detail>". Untyped errors are reported as
// ExtractionFailed.
func Reason(err error) string {
	if err == nil {
		return ""
	}
	var e *Error
	if errors.As(err, &e) {
		if e.Err == nil {
			return string(e.Kind)
		}
		return string(e.Kind) + ": " + e.Err.Error()
	}
	if k := KindOf(err); k != "" {
		return err.Error()
	}
	return string(ExtractionFailed) + ": " + err.Error()
}

// ParseReason turns a reason string received over the channel back into
// an *Error. Strings without a known kind prefix become ExtractionFailed.
func ParseReason(op, reason string) *Error {
	for _, k := range kinds {
		prefix := string(k)
		if reason == prefix {
			return &Error{Kind: k, Op: op}
		}
		if strings.HasPrefix(reason, prefix+": ") {
			return &Error{Kind: k, Op: op, Err: errors.New(strings.TrimPrefix(reason, prefix+": "))}
		}
	}
	if reason == "" {
		reason = "failed to romanize text"
	}
	return &Error{Kind: ExtractionFailed, Op: op, Err: errors.New(reason)}
}
