// Package edge implements the streaming protocol client for the remote neural
// speech synthesis service. One websocket session serves exactly one turn; a
// session is never reused across request ids.
package edge

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"time"

	"github.com/gorilla/websocket"

	platformerrors "github.com/mengzhisuoliu/easyVoice/internal/platform/errors"
	"github.com/mengzhisuoliu/easyVoice/internal/platform/logging"
)

const (
	// DefaultEndpoint is the readaloud websocket endpoint of the service.
	DefaultEndpoint = "wss://speech.platform.bing.com/consumer/speech/synthesize/readaloud/edge/v1"

	userAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 " +
		"(KHTML, like Gecko) Chrome/130.0.0.0 Safari/537.36 Edg/130.0.0.0"
	origin = "chrome-extension://jdiccldimpdaibmpdkjnbmckianbfold"
)

// Options configure a session. Voice and Language select the SSML attributes;
// Endpoint defaults to the public service and is overridden in tests.
type Options struct {
	Voice            string
	Language         string
	OutputFormat     string
	ConnectTimeout   time.Duration
	SynthesisTimeout time.Duration
	Proxy            string
	Endpoint         string
}

func (o Options) withDefaults() Options {
	if o.OutputFormat == "" {
		o.OutputFormat = DefaultOutputFormat
	}
	if o.ConnectTimeout <= 0 {
		o.ConnectTimeout = 10 * time.Second
	}
	if o.SynthesisTimeout <= 0 {
		o.SynthesisTimeout = 60 * time.Second
	}
	if o.Endpoint == "" {
		o.Endpoint = DefaultEndpoint
	}
	if o.Language == "" {
		o.Language = "zh-CN"
	}
	return o
}

// Session is one open connection to the service.
type Session struct {
	conn   *websocket.Conn
	opts   Options
	logger *logging.Logger
}

// Result is the demultiplexed output of one completed turn.
type Result struct {
	Audio      []byte
	Boundaries []WordBoundary
}

// Dial opens a session: it derives the rotating auth parameters, attaches the
// browser-like headers the service requires and performs the websocket
// handshake within ConnectTimeout.
func Dial(ctx context.Context, opts Options, logger *logging.Logger) (*Session, error) {
	const op = "edge dial"

	opts = opts.withDefaults()
	if logger == nil {
		logger = logging.NewDiscard()
	}

	endpoint := fmt.Sprintf("%s?TrustedClientToken=%s&Sec-MS-GEC=%s&Sec-MS-GEC-Version=%s&ConnectionId=%s",
		opts.Endpoint, trustedClientToken, secMSGEC(time.Now()), secMSGECVersion, NewRequestID())

	dialer := websocket.Dialer{
		HandshakeTimeout: opts.ConnectTimeout,
		Proxy:            http.ProxyFromEnvironment,
	}
	if opts.Proxy != "" {
		proxyURL, err := url.Parse(opts.Proxy)
		if err != nil {
			return nil, platformerrors.Wrap(platformerrors.KindConnect, op, "invalid proxy url", err)
		}
		dialer.Proxy = http.ProxyURL(proxyURL)
	}

	header := http.Header{}
	header.Set("User-Agent", userAgent)
	header.Set("Origin", origin)
	header.Set("Pragma", "no-cache")
	header.Set("Cache-Control", "no-cache")

	dialCtx, cancel := context.WithTimeout(ctx, opts.ConnectTimeout)
	defer cancel()

	conn, _, err := dialer.DialContext(dialCtx, endpoint, header)
	if err != nil {
		if isTimeout(err) || errors.Is(dialCtx.Err(), context.DeadlineExceeded) {
			return nil, platformerrors.Wrap(platformerrors.KindConnectTimeout, op,
				"handshake deadline exceeded", err)
		}
		return nil, platformerrors.Wrap(platformerrors.KindConnect, op,
			"websocket handshake failed", err)
	}

	return &Session{conn: conn, opts: opts, logger: logger}, nil
}

// Synthesize runs one turn: it sends the speech.config and ssml control
// frames, then demultiplexes binary audio frames and textual metadata frames
// until the service signals turn.end. On success the session is closed with a
// normal closure code. Any failure discards buffered audio; a turn that did
// not reach turn.end is never trusted.
func (s *Session) Synthesize(ctx context.Context, text string, prosody Prosody, requestID string) (*Result, error) {
	const op = "edge synthesize"

	deadline := time.Now().Add(s.opts.SynthesisTimeout)
	if ctxDeadline, ok := ctx.Deadline(); ok && ctxDeadline.Before(deadline) {
		deadline = ctxDeadline
	}

	if err := s.writeFrame(deadline, speechConfigFrame(s.opts.OutputFormat)); err != nil {
		return nil, err
	}
	if err := s.writeFrame(deadline, ssmlFrame(requestID, s.opts.Language, s.opts.Voice, prosody, text)); err != nil {
		return nil, err
	}

	var (
		audio      bytes.Buffer
		boundaries []WordBoundary
	)

	for {
		if err := s.conn.SetReadDeadline(deadline); err != nil {
			return nil, platformerrors.Wrap(platformerrors.KindTransport, op, "set read deadline", err)
		}

		messageType, frame, err := s.conn.ReadMessage()
		if err != nil {
			return nil, s.classifyReadError(op, err)
		}

		switch messageType {
		case websocket.BinaryMessage:
			if payload, ok := audioPayload(frame); ok {
				audio.Write(payload)
			}
		case websocket.TextMessage:
			switch {
			case bytes.Contains(frame, []byte(pathTurnEnd)):
				s.closeNormal()
				s.logger.DebugTag("EdgeTTS", "turn %s complete: %d audio bytes, %d boundaries",
					requestID, audio.Len(), len(boundaries))
				return &Result{Audio: audio.Bytes(), Boundaries: boundaries}, nil
			case bytes.Contains(frame, []byte(pathAudioMetadata)):
				parsed, err := parseMetadata(frame)
				if err != nil {
					return nil, platformerrors.Wrap(platformerrors.KindTransport, op,
						"malformed metadata frame", err)
				}
				boundaries = append(boundaries, parsed...)
			}
		}
	}
}

// Close tears the session down without a close handshake. Synthesize closes
// successful sessions itself; Close covers the failure paths.
func (s *Session) Close() error {
	return s.conn.Close()
}

func (s *Session) writeFrame(deadline time.Time, frame []byte) error {
	const op = "edge send frame"

	if err := s.conn.SetWriteDeadline(deadline); err != nil {
		return platformerrors.Wrap(platformerrors.KindTransport, op, "set write deadline", err)
	}
	if err := s.conn.WriteMessage(websocket.TextMessage, frame); err != nil {
		if isTimeout(err) {
			return platformerrors.Wrap(platformerrors.KindSynthesisTimeout, op,
				"write deadline exceeded", err)
		}
		return platformerrors.Wrap(platformerrors.KindTransport, op, "write control frame", err)
	}
	return nil
}

func (s *Session) closeNormal() {
	deadline := time.Now().Add(time.Second)
	_ = s.conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), deadline)
	_ = s.conn.Close()
}

// classifyReadError maps a mid-turn read failure onto the error taxonomy:
// deadline expiry, abnormal close before turn.end, or plain transport failure.
func (s *Session) classifyReadError(op string, err error) error {
	if isTimeout(err) {
		return platformerrors.Wrap(platformerrors.KindSynthesisTimeout, op,
			"no terminator before deadline", err)
	}

	var closeErr *websocket.CloseError
	if errors.As(err, &closeErr) {
		if closeErr.Code == websocket.CloseNormalClosure {
			// Normal closure without turn.end still means an incomplete turn.
			return platformerrors.Wrap(platformerrors.KindAbnormalClose, op,
				"session closed before turn.end", err)
		}
		return platformerrors.Wrap(platformerrors.KindAbnormalClose, op,
			fmt.Sprintf("abnormal close code %d", closeErr.Code), err)
	}

	return platformerrors.Wrap(platformerrors.KindTransport, op, "read frame", err)
}

func isTimeout(err error) bool {
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
