package main

import (
	"bytes"
	"context"
	"io"
	"strings"
	"testing"
	"time"

	"storefront/entity"
	"storefront/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type scriptedTransport struct {
	requests int
	codes    []string
}

func (s *scriptedTransport) RequestOTP(ctx context.Context, contact string, method entity.ContactMethod, purpose entity.OTPPurpose) (*entity.OTPResponse, error) {
	s.requests++
	return &entity.OTPResponse{Success: true}, nil
}

func (s *scriptedTransport) VerifyOTP(ctx context.Context, contact string, method entity.ContactMethod, code string, purpose entity.OTPPurpose) (*entity.OTPResponse, error) {
	s.codes = append(s.codes, code)
	if code != "123456" {
		return &entity.OTPResponse{Success: false, Error: entity.ErrCodeInvalidCode}, nil
	}
	return &entity.OTPResponse{Success: true, CodAuthToken: "cod-token"}, nil
}

func TestRun_RetriesUntilVerified(t *testing.T) {
	transport := &scriptedTransport{}
	in := strings.NewReader("000000\n 123-456 \n")
	var out bytes.Buffer

	token, err := run(context.Background(), transport, "guest@example.com", entity.MethodEmail, in, &out, logger.NewNop())
	require.NoError(t, err)

	assert.Equal(t, "cod-token", token)
	assert.Equal(t, 1, transport.requests)
	assert.Equal(t, []string{"000000", "123456"}, transport.codes)
	assert.Contains(t, out.String(), "Code sent to guest@example.com")
	assert.Contains(t, out.String(), "(2 attempts left)")
}

func TestRun_ResendDuringCooldown(t *testing.T) {
	transport := &scriptedTransport{}
	var out bytes.Buffer

	_, err := run(context.Background(), transport, "guest@example.com", entity.MethodEmail, strings.NewReader("resend\n123456\n"), &out, logger.NewNop())
	require.NoError(t, err)

	assert.Equal(t, 1, transport.requests)
	assert.Contains(t, out.String(), "Please wait")
}

func TestRun_InvalidContact(t *testing.T) {
	transport := &scriptedTransport{}

	_, err := run(context.Background(), transport, "nope", entity.MethodEmail, strings.NewReader(""), io.Discard, logger.NewNop())
	require.Error(t, err)
	assert.Equal(t, entity.ErrCodeInvalidContact.Message(), err.Error())
	assert.Zero(t, transport.requests)
}

func TestRun_InputClosed(t *testing.T) {
	_, err := run(context.Background(), &scriptedTransport{}, "guest@example.com", entity.MethodEmail, strings.NewReader(""), io.Discard, logger.NewNop())
	assert.ErrorContains(t, err, "input closed")
}

func TestRun_Cancelled(t *testing.T) {
	pr, pw := io.Pipe()
	defer pw.Close()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		_, err := run(ctx, &scriptedTransport{}, "guest@example.com", entity.MethodEmail, pr, io.Discard, logger.NewNop())
		done <- err
	}()

	cancel()
	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("run did not return after cancel")
	}
}

func TestReadLines_StopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	lines := readLines(ctx, strings.NewReader(strings.Repeat("123456\n", 100)))

	assert.Equal(t, "123456", <-lines)
	cancel()

	received := 0
	for range lines {
		received++
	}
	assert.Less(t, received, 99)
}
