/*
Package ports defines the driven ports (interfaces) of the folio dialog engine.

These interfaces decouple the core logic from external implementations, allowing
the engine to work with various storage backends, classifiers and delivery channels.

# Key Interfaces

  - StateStore: Persists and loads ConversationState by conversation ID.
  - DistributedLocker: Serializes turns of one conversation across replicas.
  - Recognizer: Classifies an utterance into ranked intents.
  - Mailer: Sends outbound email on behalf of dialogs.
  - Sender / Scheduler: Deliver paced messages outside the turn.
*/
package ports
