package main

import (
	"fmt"

	config "github.com/I-Yanis-I/museum-app/internal/config/museum-auth"
	kafkarepo "github.com/I-Yanis-I/museum-app/internal/repository/kafka"
	"github.com/spf13/cobra"
)

func kafkaCmd(configPath *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "kafka",
		Short: "Broker maintenance",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "init",
		Short: "Create the account events topic and wait until it is ready",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(*configPath)
			if err != nil {
				return err
			}
			logger, err := initLogger(cfg)
			if err != nil {
				return err
			}
			defer func() { _ = logger.Sync() }()

			err = kafkarepo.EnsureTopic(cmd.Context(), cfg.Kafka.Brokers, kafkarepo.TopicSpec{
				Name:              cfg.Kafka.Topic,
				NumPartitions:     cfg.Kafka.Partitions,
				ReplicationFactor: cfg.Kafka.ReplicationFactor,
				MaxWait:           cfg.Kafka.EnsureTimeout,
			}, logger)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "topic %q ready\n", cfg.Kafka.Topic)
			return nil
		},
	})
	return cmd
}
