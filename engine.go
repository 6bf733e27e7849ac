//
// Copyright 2023 Bytedance Ltd. and/or its affiliates
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package dddwarehouse

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"sort"
	"strings"
	"time"

	"github.com/go-logr/logr"
	"github.com/rs/xid"

	"github.com/bytedance/dddwarehouse/logger/stdr"
)

var ErrBreak = fmt.Errorf("break process") // 中断流程，不返回错误
var ErrEntityLocked = fmt.Errorf("entity locked")
var ErrEntityRepeated = fmt.Errorf("entity already added")
var ErrEntityWithoutID = fmt.Errorf("entity must have id")

var defaultLogger = stdr.NewStdr("ddd_engine")

type ILock interface {
	Lock(ctx context.Context, key string) (keyLock interface{}, err error)
	UnLock(ctx context.Context, keyLock interface{}) error
}

type IIDGenerator interface {
	NewID() (string, error)
}

type defaultIDGenerator struct {
}

func (d *defaultIDGenerator) NewID() (string, error) {
	guid := xid.New()
	return guid.String(), nil
}

type ErrList []error

func (e ErrList) Error() string {
	errs := make([]string, 0)
	for _, err := range e {
		errs = append(errs, err.Error())
	}
	return strings.Join(errs, ", ")
}

func (e ErrList) Unwrap() []error {
	return e
}

type Result struct {
	Error  error
	Break  bool
	Output interface{}
	Events []*DomainEvent // 本次提交发送的领域事件
}

func ResultErrors(err ...error) *Result {
	return &Result{Error: ErrList(err)}
}

func ResultError(err error) *Result {
	return &Result{Error: err}
}

func ResultErrOrBreak(err error) *Result {
	if errors.Is(err, ErrBreak) {
		return &Result{Break: true}
	}
	return ResultError(err)
}

// Repository 是 Main 函数可见的工作单元，记录本次提交涉及的聚合根、输出与提交后回调
type Repository struct {
	stage *Stage
	errs  []error
}

func (r *Repository) appendError(e error) {
	r.errs = append(r.errs, e)
}

func (r *Repository) getError() error {
	return errors.Join(r.errs...)
}

// Add 登记新建的聚合根，没有 ID 的实体会立即分配 ID
func (r *Repository) Add(roots ...IEntity) {
	for _, root := range roots {
		if root.GetID() == "" {
			id, err := r.stage.idGenerator.NewID()
			if err != nil {
				r.appendError(err)
				return
			}
			root.SetID(id)
		}
		if err := r.stage.track(root, OpInsert); err != nil {
			r.appendError(err)
			return
		}
	}
}

// Attach 登记已存在的聚合根并记录快照，应在修改实体之前调用
// 提交时与快照比对后更新，同时收集其领域事件
func (r *Repository) Attach(roots ...IEntity) {
	for _, root := range roots {
		if root.GetID() == "" {
			r.appendError(ErrEntityWithoutID)
			return
		}
		if err := r.stage.track(root, OpUpdate); err != nil {
			r.appendError(err)
			return
		}
	}
}

// Remove 登记待删除的聚合根
func (r *Repository) Remove(roots ...IEntity) {
	for _, root := range roots {
		if root.GetID() == "" {
			r.appendError(ErrEntityWithoutID)
			return
		}
		if err := r.stage.track(root, OpDelete); err != nil {
			r.appendError(err)
			return
		}
	}
}

func (r *Repository) NewID() (string, error) {
	return r.stage.idGenerator.NewID()
}

func (r *Repository) Output(data interface{}) {
	r.stage.result.Output = data
}

// OnCommitted 注册事务提交成功后的回调，失败或中断时不会执行
func (r *Repository) OnCommitted(f func(ctx context.Context)) {
	r.stage.committed = append(r.stage.committed, f)
}

// Schedule 在 t 时刻投递延时事件，key 重复时保留已有的定时
func (r *Repository) Schedule(ctx context.Context, key string, t time.Time, evt IEvent) error {
	bs, err := json.Marshal(NewDomainEvent(evt, WithSendType(SendTypeDelay)))
	if err != nil {
		return err
	}
	return r.stage.timer.RunOnce(ctx, key, t, bs)
}

func (r *Repository) CancelSchedule(ctx context.Context, key string) error {
	return r.stage.timer.Cancel(ctx, key)
}

type MainFunc func(ctx context.Context, repo *Repository) error
type PostSaveFunc func(ctx context.Context, res *Result)

type EventHandlerConstruct interface{}

type Options struct {
	WithTransaction bool
	Locker          ILock
	Executor        ITransaction
	Logger          logr.Logger
	EventBus        IEventBus
	Timer           ITimer
	IDGenerator     IIDGenerator
	PostSaveHooks   []PostSaveFunc
}

type Option interface {
	ApplyToOptions(*Options)
}
type TransactionOption bool

func (t TransactionOption) ApplyToOptions(opts *Options) {
	opts.WithTransaction = bool(t)
}

const WithTransaction = TransactionOption(true)
const WithoutTransaction = TransactionOption(false)

type LoggerOption struct {
	logger logr.Logger
}

func (t LoggerOption) ApplyToOptions(opts *Options) {
	opts.Logger = t.logger
}

func WithLogger(logger logr.Logger) LoggerOption {
	return LoggerOption{logger: logger}
}

type LockOption struct {
	lock ILock
}

func (t LockOption) ApplyToOptions(opts *Options) {
	opts.Locker = t.lock
}

func WithLock(lock ILock) LockOption {
	return LockOption{lock: lock}
}

type ExecutorOption struct {
	executor ITransaction
}

func (t ExecutorOption) ApplyToOptions(opts *Options) {
	opts.Executor = t.executor
}

func WithExecutor(executor ITransaction) ExecutorOption {
	return ExecutorOption{executor: executor}
}

type EventBusOption struct {
	eventBus IEventBus
}

func (t EventBusOption) ApplyToOptions(opts *Options) {
	opts.EventBus = t.eventBus
}

func WithEventBus(eventBus IEventBus) EventBusOption {
	return EventBusOption{eventBus: eventBus}
}

type DTimerOption struct {
	timer ITimer
}

func (t DTimerOption) ApplyToOptions(opts *Options) {
	opts.Timer = t.timer
}

func WithTimer(timer ITimer) DTimerOption {
	return DTimerOption{timer: timer}
}

type IDGeneratorOption struct {
	idGen IIDGenerator
}

func (t IDGeneratorOption) ApplyToOptions(opts *Options) {
	opts.IDGenerator = t.idGen
}

func WithIDGenerator(idGen IIDGenerator) IDGeneratorOption {
	return IDGeneratorOption{idGen: idGen}
}

type PostSaveOption PostSaveFunc

func (t PostSaveOption) ApplyToOptions(opts *Options) {
	opts.PostSaveHooks = append(opts.PostSaveHooks, PostSaveFunc(t))
}

func WithPostSave(f PostSaveFunc) PostSaveOption {
	return PostSaveOption(f)
}

type Engine struct {
	locker      ILock
	executor    ITransaction
	idGenerator IIDGenerator
	eventbus    IEventBus
	timer       ITimer
	router      *EventRouter
	logger      logr.Logger
	options     Options
}

func NewEngine(l ILock, e ITransaction, opts ...Option) *Engine {
	options := Options{
		Locker:   l,
		Executor: e,

		WithTransaction: true,
		Logger:          defaultLogger,
		IDGenerator:     &defaultIDGenerator{},
		EventBus:        &noEventBus{},
		Timer:           &noTimer{},
	}
	for _, opt := range opts {
		opt.ApplyToOptions(&options)
	}
	if options.Executor == nil {
		options.Executor = &noTransaction{}
	}
	engine := &Engine{
		locker:      options.Locker,
		executor:    options.Executor,
		eventbus:    options.EventBus,
		timer:       options.Timer,
		router:      NewEventRouter(),
		options:     options,
		logger:      options.Logger,
		idGenerator: options.IDGenerator,
	}
	engine.eventbus.RegisterEventHandler(engine.router.OnEvent)
	engine.timer.RegisterTimerHandler(engine.onTimer)
	return engine
}

func (e *Engine) NewStage() *Stage {
	options := e.options
	options.PostSaveHooks = append([]PostSaveFunc(nil), e.options.PostSaveHooks...)
	return &Stage{
		locker:      e.locker,
		executor:    e.executor,
		eventBus:    e.eventbus,
		timer:       e.timer,
		idGenerator: e.idGenerator,
		result:      &Result{},
		options:     options,
		logger:      e.logger,
	}
}

func (e *Engine) Run(ctx context.Context, c interface{}, opts ...Option) *Result {
	return e.NewStage().WithOption(opts...).Run(ctx, c)
}

// RegisterEventFunc 注册普通事件处理函数，形如 func(ctx context.Context, evt *SomeEvent) error
func (e *Engine) RegisterEventFunc(eventType EventType, handler EventHandler) {
	e.router.Register(eventType, handler)
}

// RegisterEventHandler 注册事件对应的命令构造函数，形如 func(evt *SomeEvent) ICommandMain
// 事件到达后构造命令并在新的 Stage 内执行
func (e *Engine) RegisterEventHandler(eventType EventType, construct EventHandlerConstruct) {
	handlerType := reflect.TypeOf(construct)
	if handlerType.Kind() != reflect.Func {
		panic("construct must type of reflect.Func")
	}
	if handlerType.NumIn() != 1 || handlerType.NumOut() != 1 {
		panic("construct num of arg or output must 1")
	}

	evtType := handlerType.In(0)
	if evtType.Kind() != reflect.Ptr {
		panic("event type must be pointer")
	}
	evtType = evtType.Elem() // event type 引用实际类型
	constructFunc := reflect.ValueOf(construct)

	e.router.Register(eventType, func(ctx context.Context, evt *DomainEvent) error {
		var bizEvt reflect.Value
		if evtType == domainEventType {
			bizEvt = reflect.ValueOf(evt)
		} else {
			bizEvt = reflect.New(evtType)
			if err := json.Unmarshal(evt.Payload, bizEvt.Interface()); err != nil {
				e.logger.Error(err, "unmarshal event failed")
				return err
			}
		}

		outputs := constructFunc.Call([]reflect.Value{bizEvt})

		if res := e.Run(ctx, outputs[0].Interface()); res.Error != nil {
			e.logger.Error(res.Error, "event handler exec failed", "event_type", evt.Type)
			return res.Error
		}
		return nil
	})
}

// RegisterCronTask 注册周期任务，定时到达后以 key 为事件类型调用 f
func (e *Engine) RegisterCronTask(ctx context.Context, key EventType, cron string, f func(ctx context.Context, key, cron string) error) error {
	if e.router.Has(key) {
		panic("key has registered")
	}

	e.router.Register(key, func(ctx context.Context, evt *TimerEvent) error {
		return f(ctx, evt.Key, evt.Cron)
	})
	return e.timer.RunCron(ctx, string(key), cron, nil)
}

type Stage struct {
	lockKeys []string
	main     MainFunc

	locker      ILock
	executor    ITransaction
	eventBus    IEventBus
	timer       ITimer
	idGenerator IIDGenerator
	logger      logr.Logger
	options     Options

	roots     []*trackedRoot
	committed []func(ctx context.Context)
	result    *Result
}

func (e *Stage) WithOption(opts ...Option) *Stage {
	for _, opt := range opts {
		opt.ApplyToOptions(&e.options)
	}

	e.locker = e.options.Locker
	e.executor = e.options.Executor
	e.eventBus = e.options.EventBus
	e.timer = e.options.Timer
	e.logger = e.options.Logger
	e.idGenerator = e.options.IDGenerator
	return e
}

func (e *Stage) Lock(keys ...string) *Stage {
	e.lockKeys = keys
	return e
}

func (e *Stage) Main(f MainFunc) *Stage {
	e.main = f
	return e
}

func (e *Stage) Run(ctx context.Context, cmd interface{}) *Result {
	switch c := cmd.(type) {
	case ICommandMain:
		var keys []string
		var options []Option
		if cmdInit, ok := cmd.(ICommandInit); ok {
			initKeys, err := cmdInit.Init(ctx)
			if err != nil {
				return ResultErrOrBreak(err)
			}
			keys = initKeys
		}
		if cmdPostSave, ok := cmd.(ICommandPostSave); ok {
			options = append(options, PostSaveOption(cmdPostSave.PostSave))
		}
		return e.WithOption(options...).Lock(keys...).Main(c.Main).Save(ctx)
	case func(ctx context.Context, repo *Repository) error:
		return e.Main(c).Save(ctx)
	case MainFunc:
		return e.Main(c).Save(ctx)
	default:
		panic(fmt.Sprintf("cmd type %T is invalid", c))
	}
}

type trackedRoot struct {
	entity IEntity
	op     OpType
	prev   IModel // Attach 时的快照
}

func (e *Stage) track(root IEntity, op OpType) error {
	for _, r := range e.roots {
		if r.entity == root {
			return ErrEntityRepeated
		}
	}
	tr := &trackedRoot{entity: root, op: op}
	if exec, ok := e.executor.(IExecutor); ok && op == OpUpdate {
		m, err := exec.Entity2Model(root, nil, OpUpdate)
		if err != nil && !errors.Is(err, ErrEntityNotRegister) {
			return err
		}
		tr.prev = m
	}
	e.roots = append(e.roots, tr)
	return nil
}

// persist 按登记顺序落库，未注册转换器的实体只参与事件收集
func (e *Stage) persist(ctx context.Context) error {
	exec, ok := e.executor.(IExecutor)
	if !ok {
		return nil
	}
	for _, r := range e.roots {
		m, err := exec.Entity2Model(r.entity, nil, r.op)
		if errors.Is(err, ErrEntityNotRegister) {
			continue
		}
		if err != nil {
			return err
		}
		action := &Action{Op: r.op, Models: []IModel{m}}
		if r.op == OpUpdate {
			if !r.entity.IsDirty() && reflect.DeepEqual(m, r.prev) {
				continue
			}
			if r.prev != nil {
				action.PrevModels = []IModel{r.prev}
			}
		}
		if err := exec.Exec(ctx, action); err != nil {
			return fmt.Errorf("persist %T %s: %w", r.entity, r.entity.GetID(), err)
		}
	}
	return nil
}

func (e *Stage) collectEvents() []*DomainEvent {
	eventMap := make(map[string]*DomainEvent, 0)
	for _, r := range e.roots {
		for _, evt := range r.entity.GetEvents() {
			eventMap[evt.ID] = evt
		}
	}
	events := make([]*DomainEvent, 0, len(eventMap))
	for _, evt := range eventMap {
		events = append(events, evt)
	}
	sort.SliceStable(events, func(i, j int) bool {
		return events[i].CreatedAt.Before(events[j].CreatedAt) ||
			(events[i].CreatedAt.Equal(events[j].CreatedAt) && events[i].ID < events[j].ID)
	})
	return events
}

func (e *Stage) clearEvents() {
	for _, r := range e.roots {
		r.entity.ClearEvents()
		r.entity.UnDirty()
	}
}

func (e *Stage) do(ctx context.Context) *Result {
	if e.main != nil {
		repo := &Repository{stage: e}
		if err := e.main(ctx, repo); err != nil {
			return ResultErrOrBreak(err)
		}
		if err := repo.getError(); err != nil {
			return ResultError(err)
		}
	}
	if err := e.persist(ctx); err != nil {
		return ResultError(err)
	}

	events := e.collectEvents()
	e.result.Events = events
	// 事务型 EventBus 的事件与业务数据同事务写入，其余在提交后发送
	if txEventBus, ok := e.eventBus.(ITransactionEventBus); ok && len(events) > 0 {
		if err := txEventBus.DispatchTx(ctx, events...); err != nil {
			return ResultErrors(err)
		}
	}
	return e.result
}

type doSave func(ctx context.Context) *Result

func (e *Stage) runOnLock(f doSave, lockKeys ...string) doSave {
	return func(ctx context.Context) *Result {
		keys := make([]string, len(lockKeys))
		copy(keys, lockKeys)
		sort.Strings(keys)
		uniq := keys[:0]
		for i, k := range keys {
			if i > 0 && k == keys[i-1] {
				continue
			}
			uniq = append(uniq, k)
		}

		var lockErr error
		ls := make([]interface{}, 0, len(uniq))
		for _, id := range uniq {
			l, err := e.locker.Lock(ctx, fmt.Sprintf("warehouse_%s", id))
			if err != nil {
				lockErr = fmt.Errorf("acquiring locker %s failed: %w", id, err)
				break
			}
			ls = append(ls, l)
		}
		defer func() {
			for i := len(ls) - 1; i >= 0; i-- {
				if err := e.locker.UnLock(ctx, ls[i]); err != nil {
					e.logger.Error(err, "unlock failed")
				}
			}
		}()

		if lockErr != nil {
			return ResultErrors(lockErr)
		}
		return f(ctx)
	}
}

func (e *Stage) runWithTransaction(f doSave) doSave {
	return func(ctx context.Context) *Result {
		ctx, err := e.executor.Begin(ctx)
		if err != nil {
			return ResultErrors(err)
		}
		defer func() {
			if r := recover(); r != nil {
				if err := e.executor.RollBack(ctx); err != nil {
					e.logger.Error(err, "rollback failed")
				}
				panic(r)
			}
		}()
		result := f(ctx)
		if result.Error != nil || result.Break {
			if err := e.executor.RollBack(ctx); err != nil {
				e.logger.Error(err, "rollback failed")
			}
			return result
		}
		if err := e.executor.Commit(ctx); err != nil {
			result.Error = err
			e.logger.Error(err, "commit failed")
		}
		return result
	}
}

func (e *Stage) afterCommit(ctx context.Context, res *Result) {
	if _, ok := e.eventBus.(ITransactionEventBus); !ok && len(res.Events) > 0 {
		if err := e.eventBus.Dispatch(ctx, res.Events...); err != nil {
			e.logger.Error(err, "dispatch events failed", "count", len(res.Events))
		}
	}
	e.clearEvents()
	for _, f := range e.committed {
		f(ctx)
	}
}

func (e *Stage) Save(ctx context.Context) *Result {
	do := e.do
	if e.options.WithTransaction {
		do = e.runWithTransaction(do)
	}

	if len(e.lockKeys) > 0 {
		do = e.runOnLock(do, e.lockKeys...)
	}

	res := do(ctx)
	if res.Error == nil && !res.Break {
		e.afterCommit(ctx, res)
	}
	if res.Error == nil && len(e.options.PostSaveHooks) > 0 {
		for _, h := range e.options.PostSaveHooks {
			h(ctx, res)
		}
	}
	return res
}
