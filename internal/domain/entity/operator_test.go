package entity

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewOperator_DefaultState(t *testing.T) {
	o := NewOperator(1, 10)
	require.Equal(t, StateMainMenu, o.State)
	require.Equal(t, int64(1), o.ID)
	require.Equal(t, int64(10), o.ChatID)
	require.Zero(t, o.PanelMessageID)
}

func TestOperator_ResetPanel(t *testing.T) {
	o := NewOperator(1, 10)
	o.PanelMessageID = 42
	o.SetState(StateAwaitingUpload)
	o.ResetPanel()
	require.Zero(t, o.PanelMessageID)
	require.Equal(t, StateAwaitingUpload, o.State)
}
