package cmd

import (
	"fmt"

	"github.com/skye-hx/watchparty/internal/config"
	"github.com/skye-hx/watchparty/internal/media"
	"github.com/skye-hx/watchparty/internal/peer"
	"github.com/skye-hx/watchparty/internal/room"
	"github.com/skye-hx/watchparty/internal/session"
	"github.com/skye-hx/watchparty/internal/ui"
)

// runHostLoop pumps coordinator events into the host-side negotiation
// session and the live view until the user leaves. Each viewer negotiates
// independently; one slow viewer never blocks the others.
func runHostLoop(cfg *config.Client, client *session.Client, handler *session.Handler, code string, source media.Source, mediaDone <-chan struct{}) error {
	view := ui.NewPartyUI(ui.ModeHost, code)
	view.SendChat = func(text string) {
		client.SendChat(code, text)
	}
	view.Start()
	defer view.Stop()
	view.Publish(ui.StatusUpdate{Text: "Sharing. Waiting for viewers..."})

	sess := peer.NewHostSession(cfg, client, source, func(id string, st peer.State) {
		view.Publish(ui.StatusUpdate{Text: fmt.Sprintf("Viewer %s: %s", shortID(id), st)})
	})
	defer sess.Close()

	go func() {
		known := make(map[string]bool)

		offer := func(viewerID string) {
			if known[viewerID] {
				return
			}
			known[viewerID] = true
			if err := sess.Offer(viewerID); err != nil {
				view.Publish(ui.ToastUpdate{Type: "error", Message: err.Error()})
			}
		}

		for {
			select {
			case viewerID, ok := <-handler.ViewerJoins:
				if !ok {
					view.Publish(ui.EndUpdate{Reason: "Connection to coordinator lost"})
					return
				}
				offer(viewerID)

			case snap, ok := <-handler.RoomState:
				if !ok {
					return
				}
				view.Publish(ui.SnapshotUpdate{Snap: snap})
				present := make(map[string]bool, len(snap.Participants))
				for _, p := range snap.Participants {
					present[p.ID] = true
					if p.Role == room.RoleViewer {
						offer(p.ID)
					}
				}
				for id := range known {
					if !present[id] {
						delete(known, id)
						sess.HandleViewerLeft(id)
					}
				}

			case p, ok := <-handler.Answer:
				if !ok {
					return
				}
				if err := sess.HandleAnswer(p.From, p.SDP); err != nil {
					view.Publish(ui.ToastUpdate{Type: "error", Message: err.Error()})
				}

			case p, ok := <-handler.Candidate:
				if !ok {
					return
				}
				if err := sess.HandleCandidate(p.From, p.Candidate); err != nil {
					view.Publish(ui.ToastUpdate{Type: "error", Message: err.Error()})
				}

			case chat, ok := <-handler.Chat:
				if !ok {
					return
				}
				view.Publish(ui.ChatUpdate{Name: chat.Name, Role: chat.Role, Text: chat.Text, At: chat.At})

			case link, ok := <-handler.HostURL:
				if !ok {
					return
				}
				view.Publish(ui.LinkUpdate{URL: link.URL})

			case toast, ok := <-handler.Toast:
				if !ok {
					return
				}
				view.Publish(ui.ToastUpdate{Type: toast.Type, Message: toast.Message})

			case <-mediaDone:
				// Local media ended: tear down every peer connection.
				sess.Close()
				view.Publish(ui.EndUpdate{Reason: "Media ended, stream stopped"})
				mediaDone = nil
			}
		}
	}()

	view.Wait()
	return nil
}

// runViewerLoop pumps coordinator events into the viewer-side negotiation
// session. A lost host surfaces a reconnect affordance; nothing retries
// automatically.
func runViewerLoop(cfg *config.Client, client *session.Client, handler *session.Handler, code string, sink media.Sink) error {
	view := ui.NewPartyUI(ui.ModeView, code)
	view.Reconnect = func() {
		client.JoinRoom(code, flagName, string(room.RoleViewer))
	}
	view.SendChat = func(text string) {
		client.SendChat(code, text)
	}
	view.Start()
	defer view.Stop()
	view.Publish(ui.StatusUpdate{Text: "Waiting for the host to share..."})

	sess := peer.NewViewerSession(cfg, client, sink, func(_ string, st peer.State) {
		switch st {
		case peer.StateConnected:
			view.Publish(ui.StatusUpdate{Text: "Receiving stream"})
		case peer.StateClosed:
			view.Publish(ui.ToastUpdate{Type: "warn", Message: session.ErrPeerDisconnected.Error()})
		}
	})
	defer sess.Close()

	go func() {
		for {
			select {
			case p, ok := <-handler.Offer:
				if !ok {
					view.Publish(ui.EndUpdate{Reason: "Connection to coordinator lost"})
					return
				}
				view.Publish(ui.StatusUpdate{Text: "Negotiating with host..."})
				if err := sess.HandleOffer(p.From, p.SDP); err != nil {
					// Reported locally, never sent back; the host is
					// unaffected by our bad luck.
					view.Publish(ui.ToastUpdate{Type: "error", Message: err.Error()})
				}

			case p, ok := <-handler.Candidate:
				if !ok {
					return
				}
				if err := sess.HandleCandidate(p.From, p.Candidate); err != nil {
					view.Publish(ui.ToastUpdate{Type: "error", Message: err.Error()})
				}

			case _, ok := <-handler.HostLeft:
				if !ok {
					return
				}
				sess.Close()
				view.Publish(ui.EndUpdate{Reason: session.ErrHostGone.Error()})

			case hostID, ok := <-handler.HostStatus:
				if !ok {
					return
				}
				if hostID == "" {
					view.Publish(ui.StatusUpdate{Text: "No host yet. Waiting..."})
				} else {
					view.Publish(ui.StatusUpdate{Text: "Host present. Waiting for the stream..."})
				}

			case snap, ok := <-handler.RoomState:
				if !ok {
					return
				}
				view.Publish(ui.SnapshotUpdate{Snap: snap})

			case chat, ok := <-handler.Chat:
				if !ok {
					return
				}
				view.Publish(ui.ChatUpdate{Name: chat.Name, Role: chat.Role, Text: chat.Text, At: chat.At})

			case link, ok := <-handler.HostURL:
				if !ok {
					return
				}
				view.Publish(ui.LinkUpdate{URL: link.URL})

			case toast, ok := <-handler.Toast:
				if !ok {
					return
				}
				view.Publish(ui.ToastUpdate{Type: toast.Type, Message: toast.Message})
			}
		}
	}()

	view.Wait()
	return nil
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
