package scheduler

import (
	"encoding/json"

	"github.com/hibiken/asynq"
)

// TaskCampaignDispatch is the one-shot task armed for every scheduled
// campaign job. The task id equals the job id.
const TaskCampaignDispatch = "campaigns.dispatch"

type CampaignDispatchPayload struct {
	JobID string `json:"jobId"`
}

func NewCampaignDispatchTask(payload CampaignDispatchPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskCampaignDispatch, data), nil
}

func ParseCampaignDispatchPayload(task *asynq.Task) (CampaignDispatchPayload, error) {
	var payload CampaignDispatchPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return CampaignDispatchPayload{}, err
	}
	return payload, nil
}
