// Package adcp implements a client for the ADCP text control protocol
// spoken by network-attached projectors.
//
// ADCP is line oriented: every command and every reply is a single line
// terminated by CRLF, exchanged over TCP (port 53595 by default). The
// package is split into a few small layers:
//
//   - Catalog: the named, pre-validated command table (Command, Catalog)
//   - Framer: line encoding, reply decoding and JSON-array replies
//     (Encode, DecodeLine, DecodeStructured, StructuredReply)
//   - Hasher: the challenge/response digest (SHA256Hasher)
//   - Transport: the byte stream (TCPTransport, or a test double)
//   - Session: the connection state machine tying them together
//
// # Session Lifecycle
//
//	DISCONNECTED -> CONNECTING -> AUTH_PENDING -> READY -> CLOSING -> DISCONNECTED
//	                     \              \           \
//	                      +--------------+-----------+--> FAILED
//
// The first line the device sends after connect is either NOKEY
// (authentication disabled, the session becomes READY immediately) or a
// challenge. The client answers a challenge with
// hex(sha256(challenge || password)) and expects OK back.
//
// # Usage Example
//
//	cfg := adcp.DefaultConfig("192.168.1.50")
//	cfg.Secret = adcp.NewSecret(os.Getenv("ADCP_PASSWORD"))
//
//	s := adcp.NewSession(cfg, adcp.WithLogger(logger))
//	if err := adcp.ConnectWithRetry(ctx, s, adcp.DefaultRetryPolicy()); err != nil {
//	    return err
//	}
//	defer s.Close()
//
//	model, err := s.Send(ctx, adcp.ModelName)
//	timer, err := s.Query(ctx, adcp.Timer)
//	hours, ok := timer.Field(0, "operation")
//
// # Timing
//
// Some firmware needs a pause between writing a command and reading the
// reply. Config.SettleInterval is waited after every write, and
// Config.CommandInterval spaces consecutive commands. Every read and write
// is additionally bounded by ctx and the configured timeouts.
//
// Power changes are accepted immediately but take a while to complete.
// WaitForPower polls power_status with backoff until the projector reports
// the settled state.
//
// # Error Handling
//
// Session operations return *Error tagged with an ErrorType. Use the
// IsXxx helpers or errors.Is with the kind sentinels:
//
//	if adcp.IsAuthRejected(err) { ... }
//	if errors.Is(err, adcp.ErrTimeout) { ... }
//
// Device-side refusals (err_cmd, err_val, ...) are ordinary reply lines;
// ReplyError turns them into a *DeviceReplyError when the caller wants one.
//
// # Thread Safety
//
// A Session is not safe for concurrent use. Commands are strictly
// sequential (one request, one reply), so callers share a session through
// a single goroutine. Catalog and Command values are immutable and may be
// shared freely.
package adcp
