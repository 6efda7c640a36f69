package views

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"
)

// Chat roles.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Greeting is the assistant's first message.
const Greeting = "Hello! I'm your Nexora AI Assistant with complete knowledge of our entire product catalog and your order history. " +
	"I can help you find specific products, compare items and prices, track your orders, get personalized recommendations " +
	"and answer questions about availability.\n\nWhat would you like to know?"

// ChatErrorReply is appended when the assistant cannot be reached.
const ChatErrorReply = "Sorry, I encountered an error. Please try again."

// ErrChatBusy is returned by Send while a previous message is unanswered.
var ErrChatBusy = errors.New("views: chat reply pending")

// Suggestions are example prompts offered before the first message.
var Suggestions = []string{
	"What wireless headphones do you have under $100?",
	"Show me my recent orders",
	"Compare your best fitness trackers",
	"What's in stock in the Smart Home category?",
	"What are your top-rated products?",
}

// Message is one chat line.
type Message struct {
	Role    string
	Content string
	At      time.Time
}

// ChatPage is a conversation with the shopping assistant. It keeps the
// transcript in memory only.
type ChatPage struct {
	page

	now     func() time.Time
	msgMu   sync.Mutex
	msgs    []Message
	pending bool
}

// NewChatPage creates a chat that starts with the greeting.
func NewChatPage(d Deps) *ChatPage {
	c := &ChatPage{now: time.Now}
	c.init(d)
	c.msgs = []Message{{Role: RoleAssistant, Content: Greeting, At: c.now()}}
	return c
}

// Mount binds the chat to ctx.
func (c *ChatPage) Mount(ctx context.Context) {
	c.begin(ctx)
}

// Send appends text and the assistant's reply to the transcript. A failed
// call appends ChatErrorReply instead; the error is still returned. Blank
// messages are ignored.
func (c *ChatPage) Send(ctx context.Context, text string) (Message, error) {
	if strings.TrimSpace(text) == "" {
		return Message{}, nil
	}

	c.msgMu.Lock()
	if c.pending {
		c.msgMu.Unlock()
		return Message{}, ErrChatBusy
	}
	c.pending = true
	c.msgs = append(c.msgs, Message{Role: RoleUser, Content: text, At: c.now()})
	c.msgMu.Unlock()

	reply, err := c.deps.API.Chat(ctx, text, "")

	msg := Message{Role: RoleAssistant, At: c.now()}
	if err != nil {
		c.deps.logger().Debug("chat: assistant call failed", "error", err)
		msg.Content = ChatErrorReply
	} else {
		msg.Content = reply.Message
	}

	c.msgMu.Lock()
	c.pending = false
	c.msgs = append(c.msgs, msg)
	c.msgMu.Unlock()
	return msg, err
}

// Messages returns a copy of the transcript.
func (c *ChatPage) Messages() []Message {
	c.msgMu.Lock()
	defer c.msgMu.Unlock()
	return append([]Message(nil), c.msgs...)
}

// Pending reports whether a reply is outstanding.
func (c *ChatPage) Pending() bool {
	c.msgMu.Lock()
	defer c.msgMu.Unlock()
	return c.pending
}
