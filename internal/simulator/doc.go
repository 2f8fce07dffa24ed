// Package simulator implements a TCP server that emulates an ADCP projector.
//
// It exists so the client can be exercised end to end without hardware:
// integration tests bind it to 127.0.0.1:0, and `adcpctl simulate` runs it
// in the foreground for manual testing.
//
// # Behaviour
//
// On connect the simulator greets with NOKEY when no password is configured.
// Otherwise it sends a random challenge and expects
// hex(sha256(challenge || password)) back, answering OK or err_auth (and
// closing the connection) accordingly.
//
// After the handshake every command line gets exactly one reply line:
//   - modelname, serialnum, power_status, input queries: quoted strings
//   - timer and version queries: JSON arrays of single-key objects
//   - power "on"/"off", key "...", input "network": ok, or err_inactive
//     when the projector is in standby
//   - anything else: err_cmd
//
// Config.Replies overrides the reply for an exact command line, which tests
// use to inject malformed or missing structured fields.
//
// # Usage Example
//
//	srv := simulator.New(simulator.Config{Host: "127.0.0.1", Password: "Projector1"})
//	if err := srv.Listen(); err != nil {
//	    return err
//	}
//	go srv.Serve(ctx)
//	fmt.Println(srv.Addr())
package simulator
