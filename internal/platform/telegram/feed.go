package telegram

import (
	"bytes"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

const (
	// FeedStartBlock is the start-of-telegram byte (STX).
	FeedStartBlock = 0x02

	// FeedEndBlock is the end-of-telegram byte (ETX).
	FeedEndBlock = 0x03

	// FeedCarriageReturn is the trailing CR after the end block.
	FeedCarriageReturn = 0x0D

	// feedMaxTelegramSize bounds the buffer for a single telegram (1 MB).
	feedMaxTelegramSize = 1 << 20

	// feedReadTimeout is the read deadline applied to each connection.
	feedReadTimeout = 30 * time.Second
)

// Feed response status codes, mirroring the response_type field of the
// telegram common part.
const (
	respAccept = "OK"
	respReject = "NG"
)

// FeedHandler is called for each telegram received on the feed. It returns
// the response bytes to frame and send back, or nil to stay silent.
type FeedHandler func(raw []byte) []byte

// FeedServer accepts framed telegrams over TCP so upstream HIS systems can
// push order messages directly instead of going through the HTTP upload.
type FeedServer struct {
	addr     string
	handler  FeedHandler
	logger   zerolog.Logger
	listener net.Listener
	mu       sync.Mutex
	conns    map[net.Conn]struct{}
	done     chan struct{}
	wg       sync.WaitGroup
}

// NewFeedServer creates a feed server that will listen on addr and hand
// each unframed telegram to handler.
func NewFeedServer(addr string, handler FeedHandler, logger zerolog.Logger) *FeedServer {
	return &FeedServer{
		addr:    addr,
		handler: handler,
		logger:  logger,
		conns:   make(map[net.Conn]struct{}),
		done:    make(chan struct{}),
	}
}

// Start begins listening. The accept loop runs in a background goroutine.
func (s *FeedServer) Start() error {
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("feed: listen on %s: %w", s.addr, err)
	}
	s.listener = ln

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.acceptLoop()
	}()

	return nil
}

// Stop closes the listener and every tracked connection, then waits for
// all goroutines to finish.
func (s *FeedServer) Stop() error {
	close(s.done)

	var err error
	if s.listener != nil {
		err = s.listener.Close()
	}

	s.mu.Lock()
	for conn := range s.conns {
		conn.Close()
	}
	s.mu.Unlock()

	s.wg.Wait()
	return err
}

// Addr returns the bound listener address; useful when started on port 0.
func (s *FeedServer) Addr() string {
	if s.listener != nil {
		return s.listener.Addr().String()
	}
	return s.addr
}

func (s *FeedServer) acceptLoop() {
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			select {
			case <-s.done:
				return
			default:
			}
			s.logger.Error().Err(err).Msg("feed accept error")
			return
		}

		s.trackConn(conn, true)

		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			defer s.trackConn(conn, false)
			defer conn.Close()
			s.handleConnection(conn)
		}()
	}
}

func (s *FeedServer) trackConn(conn net.Conn, add bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if add {
		s.conns[conn] = struct{}{}
	} else {
		delete(s.conns, conn)
	}
}

// handleConnection reads framed telegrams from conn, hands each to the
// handler, and writes back the framed response.
func (s *FeedServer) handleConnection(conn net.Conn) {
	buf := make([]byte, 0, 4096)
	readBuf := make([]byte, 4096)

	for {
		select {
		case <-s.done:
			return
		default:
		}

		conn.SetReadDeadline(time.Now().Add(feedReadTimeout))

		n, err := conn.Read(readBuf)
		if n > 0 {
			buf = append(buf, readBuf[:n]...)

			if len(buf) > feedMaxTelegramSize {
				s.logger.Warn().Str("remote", conn.RemoteAddr().String()).
					Msg("feed telegram exceeds max size, closing connection")
				return
			}

			for {
				msg, rest, found := UnframeTelegram(buf)
				if !found {
					break
				}
				buf = rest

				resp := s.handler(msg)
				if resp == nil {
					continue
				}
				conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
				if _, werr := conn.Write(FrameTelegram(resp)); werr != nil {
					s.logger.Error().Err(werr).Msg("feed write error")
				}
			}
		}

		if err != nil {
			if netErr, ok := err.(net.Error); ok && netErr.Timeout() {
				// Idle connection with nothing buffered: close it.
				if len(buf) == 0 {
					return
				}
				continue
			}
			return
		}
	}
}

// FrameTelegram wraps raw telegram bytes in feed framing:
//
//	<STX> + telegram + <ETX><CR>
func FrameTelegram(data []byte) []byte {
	frame := make([]byte, 0, len(data)+3)
	frame = append(frame, FeedStartBlock)
	frame = append(frame, data...)
	frame = append(frame, FeedEndBlock, FeedCarriageReturn)
	return frame
}

// UnframeTelegram extracts telegram bytes from a feed frame. It returns the
// extracted telegram, any bytes after the frame, and whether a complete
// frame was found.
func UnframeTelegram(data []byte) (message []byte, rest []byte, found bool) {
	startIdx := bytes.IndexByte(data, FeedStartBlock)
	if startIdx == -1 {
		return nil, data, false
	}

	endSeq := []byte{FeedEndBlock, FeedCarriageReturn}
	endIdx := bytes.Index(data[startIdx+1:], endSeq)
	if endIdx == -1 {
		return nil, data, false
	}
	endIdx = startIdx + 1 + endIdx

	return data[startIdx+1 : endIdx], data[endIdx+2:], true
}

// BuildResponse renders a 7-byte feed response: a 2-byte status followed by
// a 5-byte error code, space padded, matching the response_type/error_code
// fields of the common part.
func BuildResponse(accepted bool, errCode string) []byte {
	status := respAccept
	if !accepted {
		status = respReject
	}
	if len(errCode) > 5 {
		errCode = errCode[:5]
	}
	return []byte(fmt.Sprintf("%-2s%-5s", status, errCode))
}

// ResponseAccepted reports whether a feed response carries the accept
// status.
func ResponseAccepted(resp []byte) bool {
	return len(resp) >= 2 && string(resp[:2]) == respAccept
}
