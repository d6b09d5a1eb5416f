package publisher

import (
	"encoding/json"
	"time"

	appsync "github.com/sony/appsync-client-go"
	"github.com/sony/appsync-client-go/graphql"
	"github.com/warp-contracts/invoice-syncer/src/utils/config"
	"github.com/warp-contracts/invoice-syncer/src/utils/monitoring"
	"github.com/warp-contracts/invoice-syncer/src/utils/task"
)

const publishMutation = `mutation Publish($data: AWSJSON!, $name: String!) {
  publish(data: $data, name: $name) {
	data
	name
  }
}`

// Forwards messages to AppSync through the publish mutation
type AppSyncPublisher[In json.Marshaler] struct {
	*task.Task

	monitor monitoring.Monitor

	client      *appsync.Client
	channelName string
	input       chan In
	nowFunc     func() time.Time
}

func NewAppSyncPublisher[In json.Marshaler](config *config.Config, name string) (self *AppSyncPublisher[In]) {
	self = new(AppSyncPublisher[In])
	self.channelName = config.AppSync.ChannelName
	self.nowFunc = time.Now

	self.Task = task.NewTask(config, name).
		WithSubtaskFunc(self.run).
		WithWorkerPool(max(config.AppSync.MaxWorkers, 1), config.AppSync.MaxQueueSize)

	gqlClient := graphql.NewClient(config.AppSync.Url,
		graphql.WithAPIKey(config.AppSync.Token),
		graphql.WithTimeout(time.Second*30),
	)

	self.client = appsync.NewClient(appsync.NewGraphQLClient(gqlClient))

	return
}

func (self *AppSyncPublisher[In]) WithInputChannel(v chan In) *AppSyncPublisher[In] {
	self.input = v
	return self
}

func (self *AppSyncPublisher[In]) WithChannelName(v string) *AppSyncPublisher[In] {
	self.channelName = v
	return self
}

func (self *AppSyncPublisher[In]) WithMonitor(monitor monitoring.Monitor) *AppSyncPublisher[In] {
	self.monitor = monitor
	return self
}

type publishVariables struct {
	Name string `json:"name"`

	// AWSJSON is passed as a JSON encoded string
	Data string `json:"data"`
}

func (self *AppSyncPublisher[In]) publish(data []byte) (err error) {
	buf, err := json.Marshal(publishVariables{Name: self.channelName, Data: string(data)})
	if err != nil {
		return
	}
	variables := json.RawMessage(buf)

	response, err := self.client.Post(graphql.PostRequest{
		Query:     publishMutation,
		Variables: &variables,
	})
	if err != nil {
		return err
	}

	body := new(json.RawMessage)
	err = response.DataAs(body)
	if err != nil {
		return err
	}

	self.Log.WithField("code", *response.StatusCode).Debug("AppSync response")
	return nil
}

func (self *AppSyncPublisher[In]) run() (err error) {
	for snapshot := range self.input {
		snapshot := snapshot
		self.SubmitToWorker(func() {
			report := self.monitor.GetReport().AppSyncPublisher

			payload, err := snapshot.MarshalJSON()
			if err != nil {
				self.Log.WithError(err).Error("Failed to marshal snapshot")
				report.Errors.Marshal.Inc()
				return
			}

			err = task.NewRetry().
				WithContext(self.Ctx).
				WithMaxElapsedTime(self.Config.AppSync.BackoffMaxElapsedTime).
				WithMaxInterval(self.Config.AppSync.BackoffMaxInterval).
				WithOnError(func(err error) error {
					self.Log.WithError(err).Warn("Failed to publish snapshot to AppSync, retrying")
					report.Errors.Publish.Inc()
					return err
				}).
				Run(func() error {
					return self.publish(payload)
				})
			if err != nil {
				self.Log.WithError(err).Error("Failed to publish snapshot to AppSync, giving up")
				report.Errors.GaveUp.Inc()
				return
			}

			report.State.SnapshotsPublished.Inc()
			report.State.BytesPublished.Add(uint64(len(payload)))
			report.State.LastPublishedTimestamp.Store(self.nowFunc().Unix())
		})
	}
	return nil
}
