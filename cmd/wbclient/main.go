// Command wbclient joins a whiteboard room from the terminal. Chat lines are
// printed as they arrive, draw traffic is only counted.
package main

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"

	"github.com/ashish-sjc/scribblAI/domain"
)

func main() {
	url := flag.String("url", "ws://localhost:8080/ws", "server websocket URL")
	name := flag.String("name", "guest", "display name")
	room := flag.String("room", "lobby", "room to join")
	flag.Parse()

	if err := run(*url, *name, *room); err != nil {
		log.Fatalf("error: %v", err)
	}
}

func run(url, name, room string) error {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	conn, _, err := websocket.Dial(ctx, url, nil)
	if err != nil {
		return fmt.Errorf("dial: %w", err)
	}
	defer conn.CloseNow()

	if err := send(ctx, conn, domain.TypeJoinRoom, domain.JoinRequest{Name: name, Room: room}); err != nil {
		return fmt.Errorf("join: %w", err)
	}
	fmt.Printf("Connected to %s as %s. Type messages to chat, /quit to exit.\n", room, name)

	readErr := make(chan error, 1)
	go func() { readErr <- readLoop(ctx, conn) }()

	inputCh := make(chan string)
	go readInput(inputCh)

	for {
		select {
		case <-ctx.Done():
			fmt.Println("\nShutting down...")
			return conn.Close(websocket.StatusNormalClosure, "client close")
		case err := <-readErr:
			return err
		case line, ok := <-inputCh:
			if !ok {
				return conn.Close(websocket.StatusNormalClosure, "input closed")
			}
			msg := strings.TrimSpace(line)
			if msg == "" {
				continue
			}
			if msg == "/quit" {
				fmt.Println("Bye!")
				return conn.Close(websocket.StatusNormalClosure, "client close")
			}
			if err := send(ctx, conn, domain.TypeChat, msg); err != nil {
				return fmt.Errorf("send: %w", err)
			}
		}
	}
}

func send(ctx context.Context, conn *websocket.Conn, typ string, data any) error {
	raw, err := json.Marshal(data)
	if err != nil {
		return err
	}
	return wsjson.Write(ctx, conn, domain.Message{Type: typ, Data: raw})
}

func readLoop(ctx context.Context, conn *websocket.Conn) error {
	var draws int
	for {
		var msg domain.Message
		if err := wsjson.Read(ctx, conn, &msg); err != nil {
			switch websocket.CloseStatus(err) {
			case websocket.StatusNormalClosure, websocket.StatusGoingAway:
				return nil
			}
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return fmt.Errorf("read: %w", err)
		}

		switch msg.Type {
		case domain.TypeChat:
			var text string
			if err := json.Unmarshal(msg.Data, &text); err == nil {
				fmt.Println(text)
			}
		case domain.TypeDrawHistory:
			var events []domain.DrawEvent
			if err := json.Unmarshal(msg.Data, &events); err == nil {
				draws += len(events)
				fmt.Printf("(replayed %d draw events)\n", len(events))
			}
		case domain.TypeDraw:
			draws++
			if draws%100 == 0 {
				fmt.Printf("(%d draw events seen)\n", draws)
			}
		case domain.TypeError:
			var perr domain.ProtocolError
			if err := json.Unmarshal(msg.Data, &perr); err == nil {
				fmt.Printf("error: %s\n", perr.Error())
			}
		}
	}
}

func readInput(dst chan<- string) {
	defer close(dst)
	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		dst <- scanner.Text()
	}
}
