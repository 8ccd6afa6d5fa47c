// Package bus delivers conversation and connection status changes to the
// listeners inside the process, e.g. the event log of the agency server.
package bus

import (
	"sync"

	"github.com/findy-network/findy-conversation-agent/agent/psm"
	"github.com/golang/glog"
)

// AllWallets is the listener key's wallet which hears every wallet.
const AllWallets = "*"

type KeyType struct {
	Wallet   string
	ClientID string
}

func (k KeyType) String() string {
	return "Listener:" + k.Wallet + "|" + k.ClientID
}

// Notify is a status change of the record.
type Notify struct {
	psm.StateKey

	ConnectionID string
	Kind         Kind
	Type         psm.Type
	Status       psm.Status
	ConnStatus   psm.ConnStatus
	Timestamp    int64

	ClientID string
}

type Kind uint8

const (
	KindConversation Kind = iota
	KindConnection
)

type StateChan chan Notify

// listeners have a small buffer. A listener which doesn't keep up loses
// notifications instead of blocking the protocol.
const listenerBuffer = 16

type mapIndex int

const (
	statusListen = 0 + iota
	finalListen
)

type stationMap map[KeyType]StateChan
type lockMap struct {
	stationMap
	sync.Mutex
}

var maps = [...]lockMap{{stationMap: make(stationMap)}, {stationMap: make(stationMap)}}

var (
	// WantAll gets every status change.
	WantAll mapIndex = statusListen
	// WantFinal gets only the changes to the final statuses.
	WantFinal mapIndex = finalListen
)

func (m mapIndex) AddListener(key KeyType) StateChan {
	maps[m].Lock()
	defer maps[m].Unlock()

	glog.V(4).Infoln("notify ADD for:", key)
	c := make(StateChan, listenerBuffer)
	maps[m].stationMap[key] = c
	return c
}

func (m mapIndex) RmListener(key KeyType) {
	maps[m].Lock()
	defer maps[m].Unlock()

	glog.V(4).Infoln("notify RM for:", key)
	if ch, ok := maps[m].stationMap[key]; ok {
		close(ch)
		delete(maps[m].stationMap, key)
	}
}

// Broadcast sends the notification to the wallet's listeners and to the
// listeners of all wallets.
func (m mapIndex) Broadcast(n Notify) (sent int) {
	maps[m].Lock()
	defer maps[m].Unlock()

	for key, ch := range maps[m].stationMap {
		if key.Wallet != n.Wallet && key.Wallet != AllWallets {
			continue
		}
		state := n
		state.ClientID = key.ClientID
		select {
		case ch <- state:
			sent++
		default:
			glog.Warningln("listener is full, dropping notification:", key)
		}
	}
	return sent
}

// Conversation broadcasts the conversation's current state.
func Conversation(c *psm.Conversation) {
	n := Notify{
		StateKey:     c.StateKey,
		ConnectionID: c.ConnectionID,
		Kind:         KindConversation,
		Type:         c.Type,
		Status:       c.Status,
		Timestamp:    c.Updated,
	}
	WantAll.Broadcast(n)
	if c.Status.IsFinal() {
		WantFinal.Broadcast(n)
	}
}

// Connection broadcasts the connection's current state.
func Connection(c *psm.Connection) {
	WantAll.Broadcast(Notify{
		StateKey:     c.StateKey,
		ConnectionID: c.ID,
		Kind:         KindConnection,
		ConnStatus:   c.Status,
		Timestamp:    c.Updated,
	})
}
