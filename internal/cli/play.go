package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/spf13/cobra"

	"github.com/mcoot/rpsduel/internal/model"
	"github.com/mcoot/rpsduel/internal/web/ws"
)

type playOptions struct {
	RoomID        string
	ParticipantID string
	DisplayName   string
	Move          model.Move
	Create        bool
	WaitCountdown bool
}

func newPlayCmd() *cobra.Command {
	var (
		opts        playOptions
		move        string
		timeout     time.Duration
		noCountdown bool
	)

	cmd := &cobra.Command{
		Use:   "play [room-id]",
		Short: "Play one round over the websocket gateway",
		Long: `Join (or create) a room, wait for an opponent, signal ready and submit
a move once the countdown has elapsed. The command exits with the result.

Without a room id a new room is created with a server-generated code.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := model.ParseMove(move)
			if err != nil {
				return err
			}
			opts.Move = m
			opts.WaitCountdown = !noCountdown
			if len(args) == 1 {
				opts.RoomID = args[0]
			} else {
				opts.Create = true
			}

			ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer cancel()
			ctx, cancelTimeout := context.WithTimeout(ctx, timeout)
			defer cancelTimeout()

			conn, _, err := websocket.Dial(ctx, cfg.WebsocketURL(), nil)
			if err != nil {
				return fmt.Errorf("connection failed: %w", err)
			}
			defer func() { _ = conn.Close(websocket.StatusNormalClosure, "") }()

			result, err := playRound(ctx, conn, opts, verboseLogf)
			if err != nil {
				return err
			}

			out := NewOutput(cfg.Output)
			out.Print(result)
			return nil
		},
	}

	cmd.Flags().StringVar(&opts.ParticipantID, "as", "", "Participant id to play as (required)")
	cmd.Flags().StringVar(&opts.DisplayName, "name", "", "Display name shown to the opponent")
	cmd.Flags().StringVar(&move, "move", "", "rock, paper or scissors (required)")
	cmd.Flags().BoolVar(&opts.Create, "create", false, "Fail if the room already exists instead of joining it")
	cmd.Flags().DurationVar(&timeout, "timeout", 5*time.Minute, "Give up after this long")
	cmd.Flags().BoolVar(&noCountdown, "no-countdown", false, "Submit the move as soon as the countdown starts")
	_ = cmd.MarkFlagRequired("as")
	_ = cmd.MarkFlagRequired("move")

	return cmd
}

func verboseLogf(format string, args ...any) {
	if cfg != nil && cfg.Verbose {
		fmt.Fprintf(os.Stderr, format+"\n", args...)
	}
}

// playRound drives a single round on conn and returns once a result arrives
func playRound(ctx context.Context, conn *websocket.Conn, opts playOptions, logf func(string, ...any)) (PlayResult, error) {
	result := PlayResult{RoomID: opts.RoomID, Move: string(opts.Move)}
	participant := ws.ParticipantInfo{ID: opts.ParticipantID, DisplayName: opts.DisplayName}

	var err error
	if opts.Create {
		err = send(ctx, conn, ws.MsgCreateRoom, ws.CreateRoomRequest{RoomID: opts.RoomID, Participant: participant})
	} else {
		err = send(ctx, conn, ws.MsgJoinRoom, ws.JoinRoomRequest{RoomID: opts.RoomID, Participant: participant})
	}
	if err != nil {
		return result, err
	}

	readySent, moveSent := false, false
	sendReady := func() error {
		if readySent {
			return nil
		}
		readySent = true
		logf("signalling ready")
		return send(ctx, conn, ws.MsgReady, ws.ReadyRequest{RoomID: result.RoomID, ParticipantID: opts.ParticipantID})
	}
	sendMove := func(countdown int) error {
		if moveSent {
			return nil
		}
		moveSent = true
		if opts.WaitCountdown && countdown > 0 {
			logf("countdown: %ds", countdown)
			select {
			case <-time.After(time.Duration(countdown) * time.Second):
			case <-ctx.Done():
				return ctx.Err()
			}
		}
		logf("submitting %s", opts.Move)
		return send(ctx, conn, ws.MsgSubmitMove, ws.SubmitMoveRequest{
			RoomID:        result.RoomID,
			ParticipantID: opts.ParticipantID,
			Move:          string(opts.Move),
		})
	}

	for {
		var env ws.Envelope
		if err := wsjson.Read(ctx, conn, &env); err != nil {
			return result, fmt.Errorf("connection lost: %w", err)
		}

		switch model.NotificationType(env.Type) {
		case model.NotifyRoomError:
			var p model.RoomErrorPayload
			_ = env.Decode(&p)
			return result, &APIError{Code: p.Code, Message: p.Reason}

		case model.NotifyRoomCreated:
			result.RoomID = string(env.RoomID)
			result.Role = string(model.RoleHost)
			logf("room %s created, waiting for an opponent", result.RoomID)

		case model.NotifyRoomJoined:
			var p model.RoomJoinedPayload
			if err := env.Decode(&p); err != nil {
				return result, err
			}
			result.Role = string(p.Role)
			if p.Opponent != nil {
				result.OpponentID = string(p.Opponent.ID)
			}
			logf("joined room %s as %s", result.RoomID, p.Role)
			switch p.State {
			case model.RoomStateReady:
				err = sendReady()
			case model.RoomStateCountdown:
				err = sendMove(0)
			}

		case model.NotifyPlayerJoined:
			var p model.PlayerJoinedPayload
			if err := env.Decode(&p); err != nil {
				return result, err
			}
			result.OpponentID = string(p.Participant.ID)
			logf("%s joined", p.Participant.DisplayName)
			err = sendReady()

		case model.NotifyStartCountdown:
			var p model.StartCountdownPayload
			_ = env.Decode(&p)
			err = sendMove(p.Seconds)

		case model.NotifyGameResult:
			var p model.GameResultPayload
			if err := env.Decode(&p); err != nil {
				return result, err
			}
			result.OpponentID = string(p.OpponentID)
			result.OpponentMove = string(p.OpponentMove)
			result.Result = string(p.Result)
			return result, nil

		case model.NotifyPlayerDisconnected:
			return result, fmt.Errorf("opponent left the room")

		default:
			logf("%s", env.Type)
		}

		if err != nil {
			return result, err
		}
	}
}

func send(ctx context.Context, conn *websocket.Conn, t ws.MessageType, payload any) error {
	env, err := ws.NewEnvelope(t, payload)
	if err != nil {
		return err
	}
	if err := wsjson.Write(ctx, conn, env); err != nil {
		return fmt.Errorf("send %s: %w", t, err)
	}
	return nil
}
