package telegram

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	app "fatigue-monitor/internal/application"
	"fatigue-monitor/internal/domain/entity"
	"fatigue-monitor/internal/infrastructure/storage"
)

func TestChatSurface_PanelPerChat(t *testing.T) {
	sender := &fakeSender{}
	operators := app.NewOperatorService(storage.NewMemoryOperatorRepository())
	private := newChatSurface(sender, operators, 42, 100)
	group := newChatSurface(sender, operators, 42, 200)

	view := entity.ResultView{Label: "ALERT", Emoji: "✅", Confidence: "92%", Source: entity.SourceWebcam}

	private.ShowResult(view) // сообщение 1 в чате 100
	group.ShowResult(view)   // сообщение 2 в чате 200
	group.ShowResult(view)
	private.ShowResult(view)

	edits := sender.Edits()
	require.Len(t, edits, 2)
	assert.Equal(t, int64(200), edits[0].ChatID)
	assert.Equal(t, 2, edits[0].MessageID)
	assert.Equal(t, int64(100), edits[1].ChatID)
	assert.Equal(t, 1, edits[1].MessageID)

	private.ClearResult()
	deletes := sender.Deletes()
	require.Len(t, deletes, 1)
	assert.Equal(t, int64(100), deletes[0].ChatID)
	assert.Equal(t, 1, deletes[0].MessageID)

	group.ClearResult()
	deletes = sender.Deletes()
	require.Len(t, deletes, 2)
	assert.Equal(t, int64(200), deletes[1].ChatID)
	assert.Equal(t, 2, deletes[1].MessageID)
}

func TestChatSurface_EditFailureSendsNewPanel(t *testing.T) {
	sender := &fakeSender{}
	operators := app.NewOperatorService(storage.NewMemoryOperatorRepository())
	surface := newChatSurface(sender, operators, 1, 1)
	view := entity.ResultView{Label: "DROWSY", Emoji: "😴", Confidence: "81%"}

	surface.ShowResult(view)
	sender.editErr = assert.AnError
	surface.ShowResult(view)

	operator, err := operators.Get(context.Background(), 1, 1)
	require.NoError(t, err)
	assert.Equal(t, 2, operator.PanelMessageID)
}
