package anthropic

import (
	"testing"

	sdk "github.com/anthropics/anthropic-sdk-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToSDKMessages(t *testing.T) {
	msgs := toSDKMessages([]Message{
		{Role: "user", Content: "analyze this site"},
		{Role: "assistant", Content: "understood"},
		{Role: "", Content: "defaults to user"},
	})

	require.Len(t, msgs, 3)
	assert.Equal(t, sdk.MessageParamRoleUser, msgs[0].Role)
	assert.Equal(t, sdk.MessageParamRoleAssistant, msgs[1].Role)
	assert.Equal(t, sdk.MessageParamRoleUser, msgs[2].Role)
}

func TestMessageResponse_Text(t *testing.T) {
	resp := &MessageResponse{Content: []ContentBlock{
		{Type: "text", Text: "{"},
		{Type: "tool_use", Text: "ignored"},
		{Type: "text", Text: `"summary":"ok"}`},
	}}

	assert.Equal(t, `{"summary":"ok"}`, resp.Text())
}

func TestMessageResponse_Text_Empty(t *testing.T) {
	assert.Empty(t, (&MessageResponse{}).Text())
}
