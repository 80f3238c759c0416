package main

import (
	"context"
	"crypto/rand"
	"encoding/binary"
	"fmt"
	"net"

	"github.com/google/uuid"
	"github.com/pion/logging"
	"github.com/spf13/cobra"

	"github.com/Roba1993/hap/pkg/channel"
	"github.com/Roba1993/hap/pkg/crypto"
	"github.com/Roba1993/hap/pkg/session"
)

var pairTestCmd = &cobra.Command{
	Use:   "pair-test",
	Short: "Exercise a Secure Channel's passthrough-to-encrypted transition without a real pair-verify handshake",
	RunE:  runPairTest,
}

func runPairTest(cmd *cobra.Command, args []string) error {
	accessoryConn, peerConn := net.Pipe()
	loggerFactory := logging.NewDefaultLoggerFactory()
	pending := session.NewPendingSession()
	ch := channel.New(accessoryConn, pending, loggerFactory, nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	errCh := make(chan error, 1)
	go func() { errCh <- ch.Run(ctx) }()

	cleartext := []byte("GET /accessories HTTP/1.1\r\n\r\n")
	go peerConn.Write(cleartext)

	buf := make([]byte, len(cleartext))
	if _, err := ch.Bridge().Read(buf); err != nil {
		return fmt.Errorf("reading passthrough request: %w", err)
	}
	fmt.Printf("passthrough: accessory received %q\n", buf)

	var secret [32]byte
	if _, err := rand.Read(secret[:]); err != nil {
		return fmt.Errorf("generating shared secret: %w", err)
	}
	controllerID := uuid.New()
	pending.Send(session.Session{ControllerID: controllerID, SharedSecret: secret})

	response := []byte("HTTP/1.1 200 OK\r\n\r\n")
	if _, err := ch.Bridge().Write(response); err != nil {
		return fmt.Errorf("writing post-adoption response: %w", err)
	}

	keys, err := crypto.DeriveKeys(secret[:])
	if err != nil {
		return fmt.Errorf("deriving keys: %w", err)
	}

	header := make([]byte, 2)
	if _, err := readFull(peerConn, header); err != nil {
		return fmt.Errorf("reading record header: %w", err)
	}
	bodyLen := binary.LittleEndian.Uint16(header)
	body := make([]byte, int(bodyLen)+crypto.TagSize)
	if _, err := readFull(peerConn, body); err != nil {
		return fmt.Errorf("reading record body: %w", err)
	}
	var aad [2]byte
	copy(aad[:], header)

	var readCounter crypto.Counter
	plaintext, err := crypto.DecryptRecord(keys.AccessoryWriteKey, aad, body[:bodyLen], body[bodyLen:], &readCounter)
	if err != nil {
		return fmt.Errorf("decrypting response record: %w", err)
	}
	fmt.Printf("encrypted: decrypted accessory response %q (controller %s)\n", plaintext, controllerID)

	gotID, ok := ch.ControllerID()
	if !ok || gotID != controllerID {
		return fmt.Errorf("ControllerID() = (%v, %v), want (%v, true)", gotID, ok, controllerID)
	}
	fmt.Println("passthrough-to-encrypted transition verified")

	peerConn.Close()
	accessoryConn.Close()
	<-errCh
	return nil
}

func readFull(conn net.Conn, buf []byte) (int, error) {
	read := 0
	for read < len(buf) {
		n, err := conn.Read(buf[read:])
		read += n
		if err != nil {
			return read, err
		}
	}
	return read, nil
}
