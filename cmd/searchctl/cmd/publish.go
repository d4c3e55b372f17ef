package cmd

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Adithya-Monish-Kumar-K/textsearch/internal/indexer/index"
	"github.com/Adithya-Monish-Kumar-K/textsearch/internal/ingestion/publisher"
	"github.com/Adithya-Monish-Kumar-K/textsearch/pkg/config"
	"github.com/Adithya-Monish-Kumar-K/textsearch/pkg/kafka"
)

type publishOptions struct {
	configPath string
	brokers    []string
	topic      string
}

func newPublishCmd() *cobra.Command {
	opts := &publishOptions{}
	cmd := &cobra.Command{
		Use:   "publish",
		Short: "Send document commands to a running service's ingest topic",
	}
	cmd.PersistentFlags().StringVar(&opts.configPath, "config", "", "Service config file (kafka section)")
	cmd.PersistentFlags().StringSliceVar(&opts.brokers, "brokers", nil, "Kafka brokers, overrides the config file")
	cmd.PersistentFlags().StringVar(&opts.topic, "topic", "", "Ingest topic, overrides the config file")

	cmd.AddCommand(
		&cobra.Command{
			Use:   "add <text>",
			Short: "Publish an add command",
			Args:  cobra.MinimumNArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return withPublisher(opts, func(p *publisher.Publisher) error {
					return p.Add(cmd.Context(), strings.Join(args, " "))
				})
			},
		},
		&cobra.Command{
			Use:   "delete <id>...",
			Short: "Publish delete commands",
			Args:  cobra.MinimumNArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				ids := make([]index.DocID, 0, len(args))
				for _, a := range args {
					id, err := strconv.ParseUint(a, 10, 32)
					if err != nil {
						return fmt.Errorf("invalid document id %q", a)
					}
					ids = append(ids, index.DocID(id))
				}
				return withPublisher(opts, func(p *publisher.Publisher) error {
					return p.Delete(cmd.Context(), ids...)
				})
			},
		},
	)
	return cmd
}

func (o *publishOptions) kafkaConfig() (config.KafkaConfig, string, error) {
	cfg, err := config.Load(o.configPath)
	if err != nil {
		return config.KafkaConfig{}, "", err
	}
	kc := cfg.Kafka
	if len(o.brokers) > 0 {
		kc.Brokers = o.brokers
	}
	topic := kc.Topics.DocumentIngest
	if o.topic != "" {
		topic = o.topic
	}
	if len(kc.Brokers) == 0 {
		return config.KafkaConfig{}, "", fmt.Errorf("no kafka brokers configured")
	}
	return kc, topic, nil
}

func withPublisher(opts *publishOptions, fn func(*publisher.Publisher) error) error {
	kc, topic, err := opts.kafkaConfig()
	if err != nil {
		return err
	}
	producer := kafka.NewProducer(kc, topic)
	defer producer.Close()
	return fn(publisher.New(producer))
}
