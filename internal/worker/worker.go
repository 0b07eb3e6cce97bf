package worker

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/akolanti/ChatDocs/internal/config"
	"github.com/akolanti/ChatDocs/internal/job"
	"github.com/akolanti/ChatDocs/internal/metrics"
	"github.com/akolanti/ChatDocs/internal/rag"
	"github.com/akolanti/ChatDocs/pkg/logger_i"
)

var (
	_jobService        *job.Service
	stopWorkerChannel  chan bool
	workerWaitGroup    *sync.WaitGroup
	dispatcherChannel  chan bool
	currentWorkerCount int64
	logger             *logger_i.Logger
	_ragService        rag.Service
	historyWindow      = config.HistoryWindow
	minWorkerCount     = config.MinWorkerCount
	idleWorkerTimeout  = config.IdleWorkerTimeout
	jobTimeout         = config.JobTimeout
)

func InitServices(jobService *job.Service, ragService rag.Service, settings config.RetrievalSettings) {
	_jobService = jobService
	_ragService = ragService
	dispatcherChannel = jobService.DispatcherChannel
	if settings.HistoryWindow > 0 {
		historyWindow = settings.HistoryWindow
	}
}

func InitWorkerPool(stopWorkerChan chan bool, waitGroup *sync.WaitGroup) {
	stopWorkerChannel = stopWorkerChan
	workerWaitGroup = waitGroup
	logger = logger_i.NewLogger("WorkerPool")
	logger.Info("Initializing worker pool")
	createWorker()
	workerWaitGroup.Add(1)
	go dispatcher(stopWorkerChannel, dispatcherChannel, logger)
}

// dispatcher is counted in the worker wait group, so Wait returning means no
// goroutine of the pool still reads the package state.
func dispatcher(stop <-chan bool, signals <-chan bool, log *logger_i.Logger) {
	defer workerWaitGroup.Done()
	log.Info("Dispatcher started")
	for {
		select {
		case <-stop:
			log.Info("Dispatcher stopped")
			return
		case _, ok := <-signals:
			if !ok {
				return
			}
			if atomic.LoadInt64(&currentWorkerCount) < config.MaxWorkerCount {
				log.Info("Creating new worker", "workerCount", atomic.LoadInt64(&currentWorkerCount))
				createWorker()
			}
		}
	}
}

func createWorker() {
	workerWaitGroup.Add(1)
	atomic.AddInt64(&currentWorkerCount, 1)
	metrics.IncrementActiveWorkerCount()
	go worker()
	logger.Info("Created new worker")
}

func worker() {
	idle := time.NewTimer(idleWorkerTimeout)
	defer idle.Stop()

	for {
		select {
		case currentJob := <-_jobService.JobChannel:
			metrics.DecrementJobsInQueue()
			executeJob(currentJob)
			idle.Reset(idleWorkerTimeout)

		case <-stopWorkerChannel:
			removeWorker("Stop worker signal received")
			return

		case <-idle.C:
			if retireIdle() {
				return
			}
			idle.Reset(idleWorkerTimeout)
		}
	}
}

// retireIdle claims a slot above the minimum pool size, so two idle workers
// timing out together cannot both retire the last one.
func retireIdle() bool {
	for {
		count := atomic.LoadInt64(&currentWorkerCount)
		if count <= atomic.LoadInt64(&minWorkerCount) {
			return false
		}
		if atomic.CompareAndSwapInt64(&currentWorkerCount, count, count-1) {
			releaseWorker("Idle worker timeout", count-1)
			return true
		}
	}
}
