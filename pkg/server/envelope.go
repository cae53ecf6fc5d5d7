package server

import "context"

// Status classifies a chat envelope
type Status string

const (
	StatusSuccess Status = "success"
	StatusWarning Status = "warning"
	StatusError   Status = "error"
)

// DemoResponse is returned when no agent execution capability is configured
const DemoResponse = "I'm currently in demo mode. Please connect an LLM agent " +
	"to enable full functionality. In the meantime, I can show " +
	"you how the interface works!"

// Envelope wraps one chat operation into the uniform response contract.
// Without execution capability it short-circuits to the demo response
// before the operation runs, so no side effects occur. Operation faults
// become error-status responses instead of propagating.
func Envelope(ctx context.Context, execReady bool, payload ChatRequest, op func(context.Context) (string, error)) ChatResponse {
	if !execReady {
		return ChatResponse{
			Response:        DemoResponse,
			Status:          StatusWarning,
			OriginalPayload: payload,
		}
	}

	text, err := op(ctx)
	if err != nil {
		return ChatResponse{
			Response:        "Error: " + err.Error(),
			Status:          StatusError,
			OriginalPayload: payload,
		}
	}

	return ChatResponse{
		Response:        text,
		Status:          StatusSuccess,
		OriginalPayload: payload,
	}
}
