// Command codverify walks a guest through COD verification against a running
// storefront service: it requests a code, reads it from stdin and prints the
// COD auth token on success. Typing "resend" requests a new code.
package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"storefront/entity"
	"storefront/otpflow"
	"storefront/pkg/logger"
)

func main() {
	server := flag.String("server", "http://localhost:8080", "storefront service base URL")
	contact := flag.String("contact", "", "email address or phone number to verify")
	method := flag.String("method", string(entity.MethodEmail), "contact method: email or phone")
	timeout := flag.Duration("timeout", 10*time.Second, "per-request timeout")
	flag.Parse()

	log, err := logger.New("warn", "development")
	if err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	token, err := run(ctx, otpflow.NewHTTPTransport(*server, *timeout), *contact, entity.ContactMethod(*method), os.Stdin, os.Stderr, log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "verification failed: %v\n", err)
		os.Exit(1)
	}

	fmt.Println(token)
}

// run drives one verification. Prompts go to out; the token is returned.
func run(ctx context.Context, transport otpflow.Transport, contact string, method entity.ContactMethod, in io.Reader, out io.Writer, log *logger.Logger) (string, error) {
	session := otpflow.NewSession(transport, otpflow.DefaultOptions(), log)
	defer session.Close()

	session.SwitchMethod(method)
	purpose := entity.PurposeCODVerification

	if err := session.RequestOTP(ctx, contact, method, purpose); err != nil {
		return "", describe(err)
	}
	fmt.Fprintf(out, "Code sent to %s. Enter it below, or type \"resend\".\n", contact)

	lines := readLines(ctx, in)

	for {
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case line, ok := <-lines:
			if !ok {
				return "", errors.New("input closed before verification")
			}

			if line == "resend" {
				if !session.CanResend() {
					fmt.Fprintf(out, "Please wait %ds before requesting another code.\n", session.Snapshot().CooldownRemaining)
					continue
				}
				if err := session.RequestOTP(ctx, contact, method, purpose); err != nil {
					fmt.Fprintln(out, describe(err))
					continue
				}
				fmt.Fprintln(out, "A new code was sent.")
				continue
			}

			session.HandleOTPChange(line)

			token, err := session.VerifyOTP(ctx, contact, method, session.Snapshot().OTPValue, purpose)
			if err == nil {
				return token, nil
			}

			var otpErr *entity.OTPError
			if errors.As(err, &otpErr) && otpErr.Code == entity.ErrCodeTooManyAttempts {
				return "", describe(err)
			}
			fmt.Fprintf(out, "%s (%d attempts left)\n", describe(err), session.Snapshot().AttemptsLeft)
		}
	}
}

// readLines scans in until it is exhausted or ctx is done, then closes the channel
func readLines(ctx context.Context, in io.Reader) <-chan string {
	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(in)
		for scanner.Scan() {
			select {
			case lines <- strings.TrimSpace(scanner.Text()):
			case <-ctx.Done():
				return
			}
		}
	}()
	return lines
}

func describe(err error) error {
	var otpErr *entity.OTPError
	if errors.As(err, &otpErr) {
		return errors.New(otpErr.Message())
	}
	return err
}
