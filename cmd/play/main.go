// Command play is a terminal client for the game server. It creates or
// joins a session over the REST API, then plays over the websocket feed,
// re-rendering the board from every pushed state.
package main

import (
	"bufio"
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/atotto/clipboard"
	gorilla "github.com/gorilla/websocket"

	"github.com/pavukanez/ldr-games/internal/battleship"
	"github.com/pavukanez/ldr-games/internal/gomoku"
	"github.com/pavukanez/ldr-games/internal/identity"
	"github.com/pavukanez/ldr-games/internal/session"
	"github.com/pavukanez/ldr-games/internal/websocket"
)

func main() {
	serverURL := flag.String("server", "http://localhost:8080", "server base URL")
	newGame := flag.String("new", "", "create a new session (battleship or gomoku)")
	joinID := flag.String("join", "", "join an existing session by id")
	flag.Parse()

	if (*newGame == "") == (*joinID == "") {
		fmt.Fprintln(os.Stderr, "usage: play -new battleship|gomoku  or  play -join <session-id>")
		os.Exit(1)
	}

	idStore, err := identity.NewStore("")
	if err != nil {
		log.Fatalf("Error opening identity store: %v", err)
	}
	id, err := idStore.Load()
	if err != nil {
		log.Fatalf("Error loading identity: %v", err)
	}

	sessionID := *joinID
	if *newGame != "" {
		sessionID, err = createSession(*serverURL, *newGame)
		if err != nil {
			log.Fatalf("Error creating session: %v", err)
		}
		invite := fmt.Sprintf("play -server %s -join %s", *serverURL, sessionID)
		fmt.Printf("Created session %s\n", sessionID)
		if err := clipboard.WriteAll(invite); err == nil {
			fmt.Println("Invite command copied to clipboard:")
		} else {
			fmt.Println("Share this invite command:")
		}
		fmt.Printf("  %s\n\n", invite)
	}

	client, err := dial(*serverURL)
	if err != nil {
		log.Fatalf("Error connecting to server: %v", err)
	}
	defer client.Close()

	run(client, idStore, id, sessionID)
}

func createSession(serverURL, gameType string) (string, error) {
	body, err := json.Marshal(map[string]string{"gameType": gameType})
	if err != nil {
		return "", err
	}

	resp, err := http.Post(serverURL+"/api/sessions", "application/json", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		var apiErr struct {
			Error string `json:"error"`
		}
		json.NewDecoder(resp.Body).Decode(&apiErr)
		return "", fmt.Errorf("server rejected session: %s", apiErr.Error)
	}

	var created struct {
		SessionID string `json:"sessionId"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&created); err != nil {
		return "", err
	}
	return created.SessionID, nil
}

func dial(serverURL string) (*gorilla.Conn, error) {
	u, err := url.Parse(serverURL)
	if err != nil {
		return nil, err
	}
	switch u.Scheme {
	case "https":
		u.Scheme = "wss"
	default:
		u.Scheme = "ws"
	}
	u.Path = "/ws"

	conn, _, err := gorilla.DefaultDialer.Dial(u.String(), nil)
	return conn, err
}

// run joins the session and alternates between rendering pushed state and
// forwarding "row col" input as moves.
func run(conn *gorilla.Conn, idStore *identity.Store, id *identity.Identity, sessionID string) {
	join := websocket.IncomingMessage{
		Type:      websocket.TypeJoin,
		SessionID: sessionID,
		ClientID:  id.ClientID,
	}
	if err := conn.WriteJSON(join); err != nil {
		log.Fatalf("Error joining session: %v", err)
	}

	messages := make(chan websocket.Message)
	go func() {
		defer close(messages)
		for {
			var msg websocket.Message
			if err := conn.ReadJSON(&msg); err != nil {
				return
			}
			messages <- msg
		}
	}()

	input := make(chan string)
	go func() {
		scanner := bufio.NewScanner(os.Stdin)
		for scanner.Scan() {
			input <- strings.TrimSpace(scanner.Text())
		}
		close(input)
	}()

	playerNum := 0
	for {
		select {
		case msg, ok := <-messages:
			if !ok {
				fmt.Println("Connection closed.")
				return
			}
			switch msg.Type {
			case websocket.TypeJoined:
				playerNum = msg.PlayerNum
				fmt.Printf("Joined as player %d\n", playerNum)
				if err := idStore.RememberSlot(id, sessionID, playerNum); err != nil {
					log.Printf("Warning: could not save slot: %v", err)
				}
				render(msg.Session, playerNum)
			case websocket.TypeState:
				render(msg.Session, playerNum)
				if msg.Session != nil && msg.Session.Status == session.StatusFinished {
					return
				}
			case websocket.TypeError:
				fmt.Printf("Server: %s\n", msg.Error)
			}

		case line, ok := <-input:
			if !ok {
				return
			}
			row, col, err := parseMove(line)
			if err != nil {
				fmt.Println(err)
				continue
			}
			move := websocket.IncomingMessage{
				Type:      websocket.TypeMove,
				SessionID: sessionID,
				ClientID:  id.ClientID,
				Row:       row,
				Col:       col,
			}
			if err := conn.WriteJSON(move); err != nil {
				log.Fatalf("Error sending move: %v", err)
			}

		case <-time.After(5 * time.Minute):
			fmt.Println("Timed out waiting for activity.")
			return
		}
	}
}

func parseMove(line string) (int, int, error) {
	fields := strings.Fields(line)
	if len(fields) != 2 {
		return 0, 0, fmt.Errorf("enter a move as: row col")
	}
	row, err := strconv.Atoi(fields[0])
	if err != nil {
		return 0, 0, fmt.Errorf("enter a move as: row col")
	}
	col, err := strconv.Atoi(fields[1])
	if err != nil {
		return 0, 0, fmt.Errorf("enter a move as: row col")
	}
	return row, col, nil
}

func render(rec *session.Session, playerNum int) {
	if rec == nil {
		return
	}

	switch rec.GameType {
	case session.GameBattleship:
		renderBattleship(rec, playerNum)
	case session.GameGomoku:
		renderGomoku(rec)
	}

	switch rec.Status {
	case session.StatusWaiting:
		fmt.Println("Waiting for the second player...")
	case session.StatusFinished:
		switch {
		case rec.Winner == 0:
			fmt.Println("Game over: draw.")
		case rec.Winner == playerNum:
			fmt.Println("Game over: you win!")
		default:
			fmt.Printf("Game over: player %d wins.\n", rec.Winner)
		}
	default:
		if rec.CurrentPlayer == playerNum {
			fmt.Println("Your turn. Enter: row col")
		} else {
			fmt.Printf("Waiting for player %d...\n", rec.CurrentPlayer)
		}
	}
	fmt.Println()
}

func renderBattleship(rec *session.Session, playerNum int) {
	if playerNum == 0 {
		return
	}

	own, err := rec.BattleshipBoard(playerNum)
	if err != nil {
		log.Printf("Error decoding own board: %v", err)
		return
	}
	target, err := rec.BattleshipBoard(session.Opponent(playerNum))
	if err != nil {
		log.Printf("Error decoding opponent board: %v", err)
		return
	}

	fmt.Println("  Your fleet            Your shots")
	view := target.ViewFor(playerNum)
	grid := own.Grid()
	for r := 0; r < battleship.BoardSize; r++ {
		var left, right strings.Builder
		for c := 0; c < battleship.BoardSize; c++ {
			left.WriteString(battleshipCell(grid[r][c]))
			right.WriteString(shotCell(view[r][c]))
		}
		fmt.Printf("  %s    %s\n", left.String(), right.String())
	}
}

func battleshipCell(v int) string {
	switch v {
	case battleship.CellShip:
		return "# "
	case battleship.CellHit:
		return "X "
	case battleship.CellMiss:
		return "o "
	default:
		return ". "
	}
}

func shotCell(v int) string {
	switch v {
	case battleship.ViewHit:
		return "X "
	case battleship.ViewMiss:
		return "o "
	default:
		return ". "
	}
}

func renderGomoku(rec *session.Session) {
	g, err := rec.GomokuBoard()
	if err != nil {
		log.Printf("Error decoding board: %v", err)
		return
	}

	grid := g.Grid()
	for r := 0; r < gomoku.GridSize; r++ {
		var row strings.Builder
		for c := 0; c < gomoku.GridSize; c++ {
			switch grid[r][c] {
			case gomoku.Player1:
				row.WriteString("X ")
			case gomoku.Player2:
				row.WriteString("O ")
			default:
				row.WriteString(". ")
			}
		}
		fmt.Println(row.String())
	}
}
