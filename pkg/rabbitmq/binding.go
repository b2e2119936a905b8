package rabbitmq

// Binding names the exchange, queue and routing key a consumer or publisher uses.
type Binding struct {
	Exchange   string
	Queue      string
	RoutingKey string
}

var (
	ProgressBinding = Binding{
		Exchange:   "progress_exchange",
		Queue:      "progress_queue",
		RoutingKey: "progress.sample",
	}
	ExportBinding = Binding{
		Exchange:   "export_exchange",
		Queue:      "export_queue",
		RoutingKey: "export.request",
	}
)

func (b Binding) deadLetterExchange() string {
	return b.Exchange + "_dlx"
}

func (b Binding) deadLetterQueue() string {
	return b.Queue + "_dlq"
}

func (b Binding) deadLetterRoutingKey() string {
	return "dlq." + b.RoutingKey
}
