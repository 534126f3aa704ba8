package cli

import (
	"bufio"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gorilla/websocket"
	"github.com/spf13/cobra"
)

func newRoomCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "room",
		Short: "Create, join, and play in rooms over the realtime gateway",
	}

	cmd.AddCommand(newRoomCreateCmd())
	cmd.AddCommand(newRoomJoinCmd())

	return cmd
}

func newRoomCreateCmd() *cobra.Command {
	var name string
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a room and stay connected",
		RunE: func(cmd *cobra.Command, args []string) error {
			payload := map[string]string{"name": name}
			return runRoomSession("create_room", payload, jsonOutput)
		},
	}

	cmd.Flags().StringVar(&name, "name", "Player", "Display name for this room")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output events as JSON lines")

	return cmd
}

func newRoomJoinCmd() *cobra.Command {
	var name string
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "join <code>",
		Short: "Join a room and stay connected",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			payload := map[string]string{"room_id": args[0], "name": name}
			return runRoomSession("join_room", payload, jsonOutput)
		},
	}

	cmd.Flags().StringVar(&name, "name", "Player", "Display name for this room")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output events as JSON lines")

	return cmd
}

// wsEvent mirrors the gateway envelope
type wsEvent struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// runRoomSession connects to the gateway, sends the opening event, then
// streams events while accepting commands on stdin:
//
//	move <from> <to> [promotion]
//	resign
//	quit
func runRoomSession(openType string, openPayload map[string]string, jsonOutput bool) error {
	wsURL, err := gatewayURL(cfg.ServerURL)
	if err != nil {
		return err
	}

	header := http.Header{}
	if cfg.Session != "" {
		header.Set("Cookie", fmt.Sprintf("%s=%s", sessionCookieName, cfg.Session))
	}

	conn, resp, err := websocket.DefaultDialer.Dial(wsURL, header)
	if err != nil {
		return fmt.Errorf("connection failed: %w", err)
	}
	defer func() { _ = conn.Close() }()

	// The upgrade response may carry a minted session cookie
	if resp != nil {
		for _, cookie := range resp.Cookies() {
			if cookie.Name == sessionCookieName && cookie.Value != "" {
				_ = cfg.SaveSession(cookie.Value)
			}
		}
	}

	if err := writeEvent(conn, openType, openPayload); err != nil {
		return err
	}

	// roomID is filled in from the first room_created/room_joined event
	// so stdin commands can target it
	roomID := make(chan string, 1)

	// Handle interrupt
	done := make(chan struct{})
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		select {
		case <-sigCh:
			_ = conn.WriteMessage(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
		case <-done:
		}
	}()

	go readStdinCommands(conn, roomID, done)

	if !jsonOutput {
		fmt.Println("Connected. Commands: move <from> <to> [promotion], resign, quit")
	}

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			close(done)
			if websocket.IsCloseError(err, websocket.CloseNormalClosure) {
				if !jsonOutput {
					fmt.Println("Disconnected")
				}
				return nil
			}
			return fmt.Errorf("stream error: %w", err)
		}

		var evt wsEvent
		if err := json.Unmarshal(data, &evt); err != nil {
			continue
		}

		captureRoomID(evt, roomID)
		printRoomEvent(evt, jsonOutput)
	}
}

// captureRoomID feeds the room id from the opening ack to the stdin loop
func captureRoomID(evt wsEvent, roomID chan string) {
	if evt.Type != "room_created" && evt.Type != "room_joined" {
		return
	}
	var payload struct {
		Room struct {
			ID string `json:"id"`
		} `json:"room"`
	}
	if err := json.Unmarshal(evt.Payload, &payload); err != nil {
		return
	}
	select {
	case roomID <- payload.Room.ID:
	default:
	}
}

func readStdinCommands(conn *websocket.Conn, roomIDCh chan string, done chan struct{}) {
	var roomID string
	select {
	case roomID = <-roomIDCh:
	case <-done:
		return
	}

	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 {
			continue
		}

		switch fields[0] {
		case "move":
			if len(fields) < 3 {
				fmt.Println("usage: move <from> <to> [promotion]")
				continue
			}
			payload := map[string]string{
				"room_id": roomID,
				"from":    fields[1],
				"to":      fields[2],
			}
			if len(fields) > 3 {
				payload["promotion"] = fields[3]
			}
			if err := writeEvent(conn, "move", payload); err != nil {
				return
			}
		case "resign":
			if err := writeEvent(conn, "resign", map[string]string{"room_id": roomID}); err != nil {
				return
			}
		case "quit":
			_ = conn.WriteMessage(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return
		default:
			fmt.Printf("unknown command: %s\n", fields[0])
		}
	}
}

func writeEvent(conn *websocket.Conn, eventType string, payload any) error {
	raw, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	return conn.WriteJSON(wsEvent{Type: eventType, Payload: raw})
}

func printRoomEvent(evt wsEvent, jsonOutput bool) {
	if jsonOutput {
		data, _ := json.Marshal(evt)
		fmt.Println(string(data))
		return
	}

	timestamp := time.Now().Format("2006-01-02 15:04:05")
	display := string(evt.Payload)
	if len(display) > 100 {
		display = display[:100] + "..."
	}
	fmt.Printf("[%s] %s: %s\n", timestamp, evt.Type, display)
}

// gatewayURL converts the configured server URL to its websocket form
func gatewayURL(serverURL string) (string, error) {
	u, err := url.Parse(serverURL)
	if err != nil {
		return "", fmt.Errorf("invalid server URL: %w", err)
	}
	switch u.Scheme {
	case "https":
		u.Scheme = "wss"
	default:
		u.Scheme = "ws"
	}
	u.Path = "/ws"
	return u.String(), nil
}
