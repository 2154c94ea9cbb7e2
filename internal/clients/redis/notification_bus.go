package redis

import (
  "context"
  "encoding/json"
  "fmt"
  "strings"
  "time"

  goredis "github.com/redis/go-redis/v9"

  "github.com/paceline/paceline-backend/internal/logger"
  "github.com/paceline/paceline-backend/internal/sse"
  "github.com/paceline/paceline-backend/internal/utils"
)

// NotificationBus relays SSE messages through redis pub/sub so a notification
// created on one instance reaches clients streaming from another.
type NotificationBus interface {
  Publish(ctx context.Context, msg sse.SSEMessage) error
  StartForwarder(ctx context.Context, onMsg func(m sse.SSEMessage)) error
  Close() error
}

type notificationBus struct {
  log     *logger.Logger
  rdb     *goredis.Client
  channel string
  sub     *goredis.PubSub
}

func NewNotificationBus(log *logger.Logger) (NotificationBus, error) {
  if log == nil {
    return nil, fmt.Errorf("logger required")
  }

  addr := strings.TrimSpace(utils.GetEnv("REDIS_ADDR", "", log))
  if addr == "" {
    return nil, fmt.Errorf("missing REDIS_ADDR")
  }
  ch := strings.TrimSpace(utils.GetEnv("REDIS_CHANNEL", "notifications", log))

  rdb := goredis.NewClient(&goredis.Options{
    Addr:        addr,
    DialTimeout: 5 * time.Second,
  })

  ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
  defer cancel()
  if err := rdb.Ping(ctx).Err(); err != nil {
    _ = rdb.Close()
    return nil, fmt.Errorf("redis ping: %w", err)
  }

  return &notificationBus{
    log:     log.With("service", "RedisNotificationBus"),
    rdb:     rdb,
    channel: ch,
  }, nil
}

func (b *notificationBus) Publish(ctx context.Context, msg sse.SSEMessage) error {
  if b == nil || b.rdb == nil {
    return fmt.Errorf("redis notification bus not initialized")
  }
  raw, err := json.Marshal(msg)
  if err != nil {
    return err
  }
  return b.rdb.Publish(ctx, b.channel, raw).Err()
}

func (b *notificationBus) StartForwarder(ctx context.Context, onMsg func(m sse.SSEMessage)) error {
  if b == nil || b.rdb == nil {
    return fmt.Errorf("redis notification bus not initialized")
  }
  b.sub = b.rdb.Subscribe(ctx, b.channel)
  if _, err := b.sub.Receive(ctx); err != nil {
    return fmt.Errorf("redis subscribe: %w", err)
  }

  go func() {
    for {
      select {
      case <-ctx.Done():
        return
      case m, ok := <-b.sub.Channel():
        if !ok {
          return
        }
        var msg sse.SSEMessage
        if err := json.Unmarshal([]byte(m.Payload), &msg); err != nil {
          b.log.Warn("Dropping unreadable bus message", "error", err)
          continue
        }
        onMsg(msg)
      }
    }
  }()
  return nil
}

func (b *notificationBus) Close() error {
  if b.sub != nil {
    _ = b.sub.Close()
  }
  if b.rdb != nil {
    return b.rdb.Close()
  }
  return nil
}
