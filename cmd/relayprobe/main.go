// Command relayprobe connects to the broadcast relay, optionally sends one
// payload and prints every message relayed to it.
package main

import (
	"flag"
	"fmt"
	"net/url"
	"os"
	"os/signal"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

func main() {
	addr := flag.String("addr", "localhost:8081", "relay host:port")
	path := flag.String("path", "/ws", "relay endpoint path")
	send := flag.String("send", "", "text payload to send after connecting")
	wait := flag.Duration("wait", 10*time.Second, "how long to listen; 0 listens until interrupted")
	flag.Parse()

	logger, _ := zap.NewDevelopment()
	defer logger.Sync()

	wsURL := url.URL{Scheme: "ws", Host: *addr, Path: *path}
	logger.Info("Connecting", zap.String("url", wsURL.String()))

	conn, resp, err := websocket.DefaultDialer.Dial(wsURL.String(), nil)
	if err != nil {
		if resp != nil {
			logger.Fatal("WebSocket connection failed", zap.Int("status", resp.StatusCode), zap.Error(err))
		}
		logger.Fatal("WebSocket connection failed", zap.Error(err))
	}
	defer conn.Close()

	if *send != "" {
		if err := conn.WriteMessage(websocket.TextMessage, []byte(*send)); err != nil {
			logger.Fatal("Failed to send payload", zap.Error(err))
		}
		logger.Info("Payload sent", zap.Int("size", len(*send)))
	}

	received := make(chan struct{})
	go func() {
		defer close(received)
		for {
			messageType, message, err := conn.ReadMessage()
			if err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
					logger.Error("Read failed", zap.Error(err))
				}
				return
			}
			if messageType == websocket.BinaryMessage {
				fmt.Printf("binary %d bytes\n", len(message))
				continue
			}
			fmt.Println(string(message))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt)

	var timeout <-chan time.Time
	if *wait > 0 {
		timeout = time.After(*wait)
	}

	select {
	case <-received:
	case <-quit:
	case <-timeout:
	}

	conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
}
