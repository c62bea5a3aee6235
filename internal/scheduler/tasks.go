package scheduler

import (
	"encoding/json"

	"github.com/hibiken/asynq"
)

const TaskRFVRecalculate = "rfv.recalculate"

const TaskLeadsRedistribute = "leads.redistribute"

type RFVRecalculatePayload struct {
	RequestedBy string `json:"requestedBy,omitempty"`
}

type LeadsRedistributePayload struct {
	Action      string `json:"action,omitempty"`
	RequestedBy string `json:"requestedBy,omitempty"`
}

func NewRFVRecalculateTask(payload RFVRecalculatePayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskRFVRecalculate, data), nil
}

func ParseRFVRecalculatePayload(task *asynq.Task) (RFVRecalculatePayload, error) {
	var payload RFVRecalculatePayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return RFVRecalculatePayload{}, err
	}
	return payload, nil
}

func NewLeadsRedistributeTask(payload LeadsRedistributePayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskLeadsRedistribute, data), nil
}

func ParseLeadsRedistributePayload(task *asynq.Task) (LeadsRedistributePayload, error) {
	var payload LeadsRedistributePayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return LeadsRedistributePayload{}, err
	}
	return payload, nil
}
