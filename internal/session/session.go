package session

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/Andre2404/Digital-Twin-Predictive-Maintenance-for-electric-motors/internal/config"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ErrNotConnected 未连接状态下的发布被直接拒绝，不做缓冲
var ErrNotConnected = errors.New("mqtt session not connected")

// State 会话状态
type State string

const (
	StateDisconnected State = "disconnected" // 初始状态，或主动断开后的终态
	StateConnecting   State = "connecting"
	StateConnected    State = "connected"
	StateReconnecting State = "reconnecting" // 传输层断开后等待退避计时
	StateFailed       State = "failed"       // 重试次数耗尽，永久失败
)

// StatusHandler 状态变化回调
type StatusHandler func(state State)

// MessageHandler 订阅消息回调
type MessageHandler func(topic string, payload []byte)

// Session MQTT会话
// 整个进程最多存在一个物理连接：并发的 Connect 调用只把回调挂到
// 正在进行的连接尝试上，不会再开新连接
type Session struct {
	cfg      *config.MQTTConfig
	logger   *zap.Logger
	clientID string // 进程生命周期内固定，broker 以此识别同一逻辑客户端

	mu              sync.Mutex
	state           State
	client          mqtt.Client
	attempts        int
	statusHandlers  []StatusHandler
	messageHandlers []MessageHandler
	subs            map[string]byte // topic → qos，重连成功后重新订阅
	reconnectTimer  *time.Timer
	closed          bool
	notifyCh        chan State

	// 测试注入点
	newClient func(opts *mqtt.ClientOptions) mqtt.Client
}

var (
	instanceMu sync.Mutex
	instance   *Session
)

// Get 返回进程级单例会话，首次调用时创建
func Get(cfg *config.MQTTConfig, logger *zap.Logger) *Session {
	instanceMu.Lock()
	defer instanceMu.Unlock()
	if instance == nil {
		instance = New(cfg, logger)
	}
	return instance
}

// New 创建会话（单元测试和特殊场景直接使用；常规路径走 Get）
func New(cfg *config.MQTTConfig, logger *zap.Logger) *Session {
	s := &Session{
		cfg:      cfg,
		logger:   logger,
		clientID: fmt.Sprintf("%s-%s", cfg.ClientIDPrefix, uuid.NewString()[:8]),
		state:    StateDisconnected,
		subs:     make(map[string]byte),
		notifyCh: make(chan State, 16),
		newClient: func(opts *mqtt.ClientOptions) mqtt.Client {
			return mqtt.NewClient(opts)
		},
	}
	go s.notifyLoop()
	return s
}

// notifyLoop 串行分发状态通知，保证回调看到的状态变化顺序与实际一致
func (s *Session) notifyLoop() {
	for state := range s.notifyCh {
		s.mu.Lock()
		handlers := make([]StatusHandler, len(s.statusHandlers))
		copy(handlers, s.statusHandlers)
		s.mu.Unlock()

		for _, h := range handlers {
			h(state)
		}
	}
}

// ClientID 返回本会话的稳定客户端标识
func (s *Session) ClientID() string {
	return s.clientID
}

// State 返回当前会话状态
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// IsConnected 检查连接状态
func (s *Session) IsConnected() bool {
	return s.State() == StateConnected
}

// Connect 注册回调并确保存在一个连接（或连接尝试）
// 返回会话句柄；会话已主动关闭或已永久失败时返回 nil
func (s *Session) Connect(onStatus StatusHandler, onMessage MessageHandler) *Session {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed || s.state == StateFailed {
		return nil
	}

	if onStatus != nil {
		s.statusHandlers = append(s.statusHandlers, onStatus)
	}
	if onMessage != nil {
		s.messageHandlers = append(s.messageHandlers, onMessage)
	}

	switch s.state {
	case StateConnecting, StateConnected, StateReconnecting:
		// 已有连接或正在连接：挂上回调即可
		return s
	}

	s.startConnectLocked()
	return s
}

// startConnectLocked 发起连接尝试，调用方必须持有 s.mu
func (s *Session) startConnectLocked() {
	s.setStateLocked(StateConnecting)

	if s.client == nil {
		opts := mqtt.NewClientOptions()
		opts.AddBroker(s.cfg.Broker)
		opts.SetClientID(s.clientID)
		if s.cfg.Username != "" {
			opts.SetUsername(s.cfg.Username)
		}
		if s.cfg.Password != "" {
			opts.SetPassword(s.cfg.Password)
		}
		// 重连由本会话的状态机接管，不用 paho 的自动重连
		opts.SetAutoReconnect(false)
		opts.SetCleanSession(true)
		opts.SetConnectionLostHandler(s.onConnectionLost)
		s.client = s.newClient(opts)
	}

	go s.runConnect()
}

// runConnect 执行一次连接握手（阻塞等待 broker ack）
func (s *Session) runConnect() {
	client := s.client
	token := client.Connect()
	token.Wait()

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		// 握手期间被 Disconnect：连接已无人认领，就地拆掉
		if client.IsConnected() {
			client.Disconnect(250)
		}
		return
	}

	if err := token.Error(); err != nil {
		s.attempts++
		if s.attempts >= s.cfg.MaxReconnects {
			// fail-stop：不再无限重试，向上层暴露永久失败状态
			s.setStateLocked(StateFailed)
			s.mu.Unlock()
			s.logger.Error("MQTT session failed permanently",
				zap.String("broker", s.cfg.Broker),
				zap.Int("attempts", s.attempts),
				zap.Error(err),
			)
			return
		}

		s.setStateLocked(StateReconnecting)
		delay := s.backoffLocked()
		s.reconnectTimer = time.AfterFunc(delay, s.retry)
		s.mu.Unlock()

		s.logger.Warn("MQTT connect failed, will retry",
			zap.String("broker", s.cfg.Broker),
			zap.Int("attempt", s.attempts),
			zap.Duration("backoff", delay),
			zap.Error(err),
		)
		return
	}

	s.attempts = 0
	s.setStateLocked(StateConnected)
	subs := make(map[string]byte, len(s.subs))
	for topic, qos := range s.subs {
		subs[topic] = qos
	}
	s.mu.Unlock()

	s.logger.Info("MQTT session connected",
		zap.String("broker", s.cfg.Broker),
		zap.String("client_id", s.clientID),
	)

	// 恢复订阅（client_id 稳定，但 clean session 下 broker 不保留订阅）
	for topic, qos := range subs {
		if token := client.Subscribe(topic, qos, s.route); token.Wait() && token.Error() != nil {
			s.logger.Error("Failed to restore subscription",
				zap.String("topic", topic),
				zap.Error(token.Error()),
			)
		}
	}
}

// retry 退避计时结束后的重连入口
func (s *Session) retry() {
	s.mu.Lock()
	if s.closed || s.state != StateReconnecting {
		s.mu.Unlock()
		return
	}
	s.setStateLocked(StateConnecting)
	s.mu.Unlock()

	go s.runConnect()
}

// onConnectionLost 传输层断开（非主动断开）
func (s *Session) onConnectionLost(_ mqtt.Client, err error) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}

	s.attempts++
	if s.attempts >= s.cfg.MaxReconnects {
		s.setStateLocked(StateFailed)
		s.mu.Unlock()
		s.logger.Error("MQTT session failed permanently after connection loss",
			zap.Error(err),
		)
		return
	}

	s.setStateLocked(StateReconnecting)
	delay := s.backoffLocked()
	s.reconnectTimer = time.AfterFunc(delay, s.retry)
	s.mu.Unlock()

	s.logger.Warn("MQTT connection lost, reconnecting",
		zap.Duration("backoff", delay),
		zap.Error(err),
	)
}

// backoffLocked 指数退避，封顶到配置的最大值
func (s *Session) backoffLocked() time.Duration {
	delay := s.cfg.ReconnectBackoff
	for i := 1; i < s.attempts; i++ {
		delay *= 2
		if delay >= s.cfg.ReconnectBackoffMax {
			return s.cfg.ReconnectBackoffMax
		}
	}
	return delay
}

// Publish 发布消息
// 未连接时立即失败：未连接的发布被丢弃，不做排队
func (s *Session) Publish(topic string, qos byte, retained bool, payload []byte) error {
	s.mu.Lock()
	connected := s.state == StateConnected
	client := s.client
	s.mu.Unlock()

	if !connected || client == nil {
		return ErrNotConnected
	}

	token := client.Publish(topic, qos, retained, payload)
	token.Wait()

	if err := token.Error(); err != nil {
		return fmt.Errorf("failed to publish to topic %s: %w", topic, err)
	}

	return nil
}

// Subscribe 订阅主题
// 订阅登记在会话里，重连成功后自动恢复；未连接时只登记不报错
func (s *Session) Subscribe(topic string, qos byte) error {
	s.mu.Lock()
	s.subs[topic] = qos
	connected := s.state == StateConnected
	client := s.client
	s.mu.Unlock()

	if !connected || client == nil {
		return nil
	}

	if token := client.Subscribe(topic, qos, s.route); token.Wait() && token.Error() != nil {
		return fmt.Errorf("failed to subscribe to topic %s: %w", topic, token.Error())
	}

	return nil
}

// route 把 paho 回调分发给所有注册的消息回调
func (s *Session) route(_ mqtt.Client, msg mqtt.Message) {
	s.mu.Lock()
	handlers := make([]MessageHandler, len(s.messageHandlers))
	copy(handlers, s.messageHandlers)
	s.mu.Unlock()

	for _, h := range handlers {
		h(msg.Topic(), msg.Payload())
	}
}

// Disconnect 主动断开（终态）
// 任何状态下都可以安全调用；立即生效，注销全部回调并取消未触发的重连计时，
// 断开之后不会再有任何状态通知
func (s *Session) Disconnect() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	if s.reconnectTimer != nil {
		s.reconnectTimer.Stop()
		s.reconnectTimer = nil
	}
	s.statusHandlers = nil
	s.messageHandlers = nil
	s.state = StateDisconnected
	close(s.notifyCh) // 结束 notifyLoop；closed 置位后不会再有投递
	client := s.client
	s.mu.Unlock()

	if client != nil && client.IsConnected() {
		client.Disconnect(250) // 250ms等待时间
	}

	s.logger.Info("MQTT session disconnected",
		zap.String("client_id", s.clientID),
	)
}

// setStateLocked 更新状态并投递通知，调用方必须持有 s.mu
// 通知经由 notifyLoop 串行分发，回调里反向调用会话方法不会死锁
func (s *Session) setStateLocked(state State) {
	if s.closed || s.state == state {
		return
	}
	s.state = state

	select {
	case s.notifyCh <- state:
	default:
		// 队列已满时丢弃：状态变化本身很少，消费方总能通过 State() 读到最新值
	}
}
