package services

import (
	"bytes"
	"context"
	"io"
	"strings"
	"sync"
	"testing"

	"github.com/anjiri1684/counsel_connect/models"
	"github.com/anjiri1684/counsel_connect/storage"
	"github.com/anjiri1684/counsel_connect/store"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memoryBlobs struct {
	mu      sync.Mutex
	data    map[string][]byte
	deleted []string
}

func newMemoryBlobs() *memoryBlobs {
	return &memoryBlobs{data: make(map[string][]byte)}
}

func (b *memoryBlobs) Upload(_ context.Context, fileName string, r io.Reader) (storage.Blob, error) {
	body, err := io.ReadAll(r)
	if err != nil {
		return storage.Blob{}, err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	key := uuid.NewString() + "-" + fileName
	b.data[key] = body
	return storage.Blob{Key: key, URL: "mem://" + key}, nil
}

func (b *memoryBlobs) Open(_ context.Context, url string) (io.ReadCloser, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return io.NopCloser(bytes.NewReader(b.data[strings.TrimPrefix(url, "mem://")])), nil
}

func (b *memoryBlobs) Delete(_ context.Context, key string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.data, key)
	b.deleted = append(b.deleted, key)
	return nil
}

func (f *fixture) messaging(blobs BlobStore) *MessagingService {
	return NewMessagingService(discardLogger(), f.repo, f.repo, blobs)
}

func TestMessagingService_StartConversationIsIdempotent(t *testing.T) {
	f := newFixture(t)
	svc := f.messaging(nil)
	ctx := context.Background()

	first, created, err := svc.StartConversation(ctx, actorOf(f.student), f.counselor.ID)
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, f.counselor.ID, first.Counterpart.ID)

	// the counterpart gets the same conversation
	second, created, err := svc.StartConversation(ctx, actorOf(f.counselor), f.student.ID)
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, first.Conversation.ID, second.Conversation.ID)
	assert.Equal(t, f.student.ID, second.Counterpart.ID)

	_, _, err = svc.StartConversation(ctx, actorOf(f.student), f.student.ID)
	assert.Equal(t, KindValidation, KindOf(err))
	_, _, err = svc.StartConversation(ctx, actorOf(f.student), uuid.New())
	assert.Equal(t, KindNotFound, KindOf(err))
}

func TestMessagingService_ConcurrentStartYieldsOneConversation(t *testing.T) {
	f := newFixture(t)
	svc := f.messaging(nil)

	var wg sync.WaitGroup
	ids := make([]uuid.UUID, 8)
	for i := range ids {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			actor, other := actorOf(f.student), f.counselor.ID
			if i%2 == 1 {
				actor, other = actorOf(f.counselor), f.student.ID
			}
			summary, _, err := svc.StartConversation(context.Background(), actor, other)
			if assert.NoError(t, err) {
				ids[i] = summary.Conversation.ID
			}
		}(i)
	}
	wg.Wait()
	for _, id := range ids {
		assert.Equal(t, ids[0], id)
	}
}

func TestMessagingService_SendAndRead(t *testing.T) {
	f := newFixture(t)
	svc := f.messaging(nil)
	ctx := context.Background()

	conv, _, err := svc.StartConversation(ctx, actorOf(f.student), f.counselor.ID)
	require.NoError(t, err)
	convID := conv.Conversation.ID

	_, _, err = svc.SendMessage(ctx, actorOf(f.student), convID, SendMessageInput{Content: "   "})
	assert.Equal(t, KindValidation, KindOf(err))

	msg, events, err := svc.SendMessage(ctx, actorOf(f.student), convID, SendMessageInput{Content: strings.Repeat("a", 120)})
	require.NoError(t, err)
	assert.Equal(t, f.counselor.ID, msg.ReceiverID)
	require.Len(t, events, 1)
	assert.Equal(t, models.NotificationNewMessage, events[0].Type)
	assert.Equal(t, f.counselor.ID, events[0].Recipient)
	assert.Equal(t, "New message from "+f.student.FullName, events[0].Title)
	assert.True(t, strings.HasSuffix(events[0].Message, "..."))

	_, _, err = svc.SendMessage(ctx, actorOf(f.student), convID, SendMessageInput{Content: "second"})
	require.NoError(t, err)

	// outsiders are rejected
	_, _, err = svc.SendMessage(ctx, actorOf(f.student2), convID, SendMessageInput{Content: "hi"})
	assert.Equal(t, KindForbidden, KindOf(err))
	_, _, err = svc.ListMessages(ctx, actorOf(f.student2), convID, store.Page{})
	assert.Equal(t, KindForbidden, KindOf(err))

	// fetching does not mark anything read
	items, total, err := svc.ListMessages(ctx, actorOf(f.counselor), convID, store.Page{})
	require.NoError(t, err)
	assert.EqualValues(t, 2, total)
	assert.False(t, items[0].IsRead)

	n, err := svc.UnreadCount(ctx, actorOf(f.counselor), nil)
	require.NoError(t, err)
	assert.EqualValues(t, 2, n)
	n, err = svc.UnreadCount(ctx, actorOf(f.student), &convID)
	require.NoError(t, err)
	assert.EqualValues(t, 0, n)

	// the sender cannot mark its own messages read
	updated, err := svc.MarkRead(ctx, actorOf(f.student), convID, nil)
	require.NoError(t, err)
	assert.EqualValues(t, 0, updated)

	updated, err = svc.MarkRead(ctx, actorOf(f.counselor), convID, []uuid.UUID{msg.ID})
	require.NoError(t, err)
	assert.EqualValues(t, 1, updated)
	updated, err = svc.MarkRead(ctx, actorOf(f.counselor), convID, nil)
	require.NoError(t, err)
	assert.EqualValues(t, 1, updated)

	summaries, err := svc.ListConversations(ctx, actorOf(f.counselor))
	require.NoError(t, err)
	require.Len(t, summaries, 1)
	assert.EqualValues(t, 0, summaries[0].UnreadCount)
	require.NotNil(t, summaries[0].Conversation.LastMessage)
	assert.Equal(t, "second", summaries[0].Conversation.LastMessage.Content)
}

func TestMessagingService_Attachments(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	disabled := f.messaging(nil)
	conv, _, err := disabled.StartConversation(ctx, actorOf(f.student), f.counselor.ID)
	require.NoError(t, err)
	convID := conv.Conversation.ID
	upload := func() *AttachmentUpload {
		return &AttachmentUpload{FileName: "cv.pdf", ContentType: "application/pdf", Size: 7, Body: strings.NewReader("%PDF-1.")}
	}

	_, _, err = disabled.SendMessage(ctx, actorOf(f.student), convID, SendMessageInput{File: upload()})
	assert.Equal(t, KindValidation, KindOf(err))

	blobs := newMemoryBlobs()
	svc := f.messaging(blobs)

	tooBig := upload()
	tooBig.Size = MaxAttachmentSize + 1
	_, _, err = svc.SendMessage(ctx, actorOf(f.student), convID, SendMessageInput{File: tooBig})
	assert.Equal(t, KindValidation, KindOf(err))

	msg, events, err := svc.SendMessage(ctx, actorOf(f.student), convID, SendMessageInput{File: upload()})
	require.NoError(t, err)
	assert.Equal(t, "cv.pdf", msg.Attachment.FileName)
	assert.Equal(t, "Sent an attachment: cv.pdf", events[0].Message)

	body, att, err := svc.OpenAttachment(ctx, actorOf(f.counselor), msg.ID)
	require.NoError(t, err)
	data, err := io.ReadAll(body)
	require.NoError(t, err)
	assert.Equal(t, "%PDF-1.", string(data))
	assert.Equal(t, "application/pdf", att.ContentType)

	_, _, err = svc.OpenAttachment(ctx, actorOf(f.student2), msg.ID)
	assert.Equal(t, KindForbidden, KindOf(err))

	// only the sender deletes, and the blob goes with the message
	err = svc.DeleteMessage(ctx, actorOf(f.counselor), msg.ID)
	assert.Equal(t, KindForbidden, KindOf(err))
	require.NoError(t, svc.DeleteMessage(ctx, actorOf(f.student), msg.ID))
	assert.Equal(t, []string{msg.Attachment.Key}, blobs.deleted)

	err = svc.DeleteMessage(ctx, actorOf(f.student), msg.ID)
	assert.Equal(t, KindNotFound, KindOf(err))
}
