package bootstrap

import (
	"log"

	"document-qa-be/internal/config"
	"document-qa-be/internal/controller"
	"document-qa-be/internal/pkg/crypto"
	"document-qa-be/internal/pkg/logger"
	"document-qa-be/internal/repository/memory"
	"document-qa-be/internal/repository/unitofwork"
	"document-qa-be/internal/service"
	"document-qa-be/pkg/embedding"
	"document-qa-be/pkg/llm/factory"
	pktNats "document-qa-be/pkg/nats"
	"document-qa-be/pkg/rag/history"
	"document-qa-be/pkg/rag/retrieval"
	"document-qa-be/pkg/rag/title"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"gorm.io/gorm"
)

// Container wires every dependency of the application.
type Container struct {
	Logger logger.ILogger

	RagController      controller.IRagController
	DocumentController controller.IDocumentController

	// Background services, run by main
	IndexingService service.IIndexingService

	NatsPublisher *pktNats.Publisher
}

func NewContainer(db *gorm.DB, cfg *config.Config) *Container {
	// 1. Core facades
	uowFactory := unitofwork.NewRepositoryFactory(db)
	sysLogger := logger.NewZapLogger(cfg.App.LogFilePath, cfg.App.Environment == "production")

	cipher, err := crypto.NewMessageCipher(cfg.Keys.EncryptionKey)
	if err != nil {
		log.Fatalf("[FATAL] Invalid message encryption key: %v", err)
	}

	// 2. Event bus
	watermillLogger := watermill.NewStdLogger(false, false)
	pubSub := gochannel.NewGoChannel(
		gochannel.Config{},
		watermillLogger,
	)

	// 3. Providers
	var embeddingProvider embedding.Provider
	if cfg.Ai.EmbeddingProvider == "ollama" {
		embeddingProvider = embedding.NewOllamaProvider(
			cfg.Ai.OllamaBaseURL,
			cfg.Ai.OllamaModel,
		)
		log.Printf("[INFO] Using Embedding Provider: OLLAMA (%s)", cfg.Ai.OllamaModel)
	} else {
		embeddingProvider = embedding.NewGeminiProvider(cfg.Keys.GoogleGemini)
		log.Printf("[INFO] Using Embedding Provider: GEMINI")
	}

	llmProvider, err := factory.NewLLMProvider(
		cfg.Ai.LLMProvider,
		cfg.Ai.LLMModel,
		cfg.Ai.OllamaBaseURL,
		cfg.Keys.Groq,
	)
	if err != nil {
		log.Fatalf("[FATAL] Failed to initialize LLM Provider: %v", err)
	}
	log.Printf("[INFO] Using LLM Provider: %s (%s)", cfg.Ai.LLMProvider, cfg.Ai.LLMModel)

	// 4. Infrastructure
	natsPub, err := pktNats.NewPublisher(cfg.App.NatsURL)
	if err != nil {
		log.Printf("[WARN] Failed to connect to NATS Publisher: %v", err)
		natsPub = nil
	}

	stateRepo := memory.NewSessionStateRepository()

	// 5. Services
	publisherService := service.NewPublisherService(cfg.Keys.IndexTopic, pubSub)
	indexingService := service.NewIndexingService(
		pubSub,
		cfg.Keys.IndexTopic,
		uowFactory,
		embeddingProvider,
		natsPub,
		sysLogger,
	)

	documentService := service.NewDocumentService(uowFactory, publisherService, natsPub, sysLogger)

	// Pipeline traces are chatty, keep them out of the main app log
	ragLogger := logger.NewIsolatedLogger("logs/rag_pipeline.log")

	retriever := retrieval.NewRetriever(embeddingProvider, retrieval.NewRewriter(llmProvider))
	historyLoader := history.NewLoader(cipher, cfg.Rag.HistoryLimit)
	titleGenerator := title.NewGenerator(uowFactory, llmProvider, cipher, natsPub, sysLogger)

	ragService := service.NewRagService(
		uowFactory,
		retriever,
		llmProvider,
		historyLoader,
		titleGenerator,
		stateRepo,
		cipher,
		cfg.Rag.TopK,
		ragLogger,
	)

	// 6. Controllers
	ragController := controller.NewRagController(ragService)
	documentController := controller.NewDocumentController(documentService)

	return &Container{
		Logger:             sysLogger,
		RagController:      ragController,
		DocumentController: documentController,
		IndexingService:    indexingService,
		NatsPublisher:      natsPub,
	}
}
