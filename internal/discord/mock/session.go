// Package mock provides test doubles for the Discord messaging layer.
package mock

import (
	"strconv"
	"sync"

	"github.com/bwmarrin/discordgo"
)

// SentMessage records one plain-text ChannelMessageSend call.
type SentMessage struct {
	ChannelID string
	Content   string
}

// Messenger records channel messages and edits for test assertions.
// It implements the discord.Messenger interface.
type Messenger struct {
	mu sync.Mutex

	// Sent records plain-text sends, Complex records embed/component sends,
	// Edits records in-place message edits.
	Sent    []SentMessage
	Complex []*discordgo.MessageSend
	Edits   []*discordgo.MessageEdit

	// SendError, when set, is returned by the send calls.
	SendError error
	// EditError, when set, is returned by ChannelMessageEditComplex.
	EditError error

	nextID int
}

func (m *Messenger) ChannelMessageSend(channelID, content string, _ ...discordgo.RequestOption) (*discordgo.Message, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Sent = append(m.Sent, SentMessage{ChannelID: channelID, Content: content})
	if m.SendError != nil {
		return nil, m.SendError
	}
	return m.message(channelID), nil
}

func (m *Messenger) ChannelMessageSendComplex(channelID string, data *discordgo.MessageSend, _ ...discordgo.RequestOption) (*discordgo.Message, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Complex = append(m.Complex, data)
	if m.SendError != nil {
		return nil, m.SendError
	}
	return m.message(channelID), nil
}

func (m *Messenger) ChannelMessageEditComplex(edit *discordgo.MessageEdit, _ ...discordgo.RequestOption) (*discordgo.Message, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Edits = append(m.Edits, edit)
	if m.EditError != nil {
		return nil, m.EditError
	}
	return &discordgo.Message{ID: edit.ID, ChannelID: edit.Channel}, nil
}

func (m *Messenger) message(channelID string) *discordgo.Message {
	m.nextID++
	return &discordgo.Message{
		ID:        "msg-" + strconv.Itoa(m.nextID),
		ChannelID: channelID,
	}
}

// LastSent returns the most recently recorded plain-text send, or nil.
func (m *Messenger) LastSent() *SentMessage {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.Sent) == 0 {
		return nil
	}
	return &m.Sent[len(m.Sent)-1]
}

// SentCount returns how many plain-text sends were recorded.
func (m *Messenger) SentCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Sent)
}
