package bus

import (
	"testing"
	"time"
)

func TestPublishDeliversToSubscriber(t *testing.T) {
	b := New()
	sub := b.Subscribe(TableTasks)
	defer b.Unsubscribe(sub)

	b.Publish(TableTasks)

	select {
	case <-sub.C():
	case <-time.After(time.Second):
		t.Fatal("no signal delivered")
	}
}

func TestPublishCoalesces(t *testing.T) {
	b := New()
	sub := b.Subscribe(TableTasks)
	defer b.Unsubscribe(sub)

	// A burst of publishes while nobody is reading collapses into one
	// pending signal.
	for i := 0; i < 10; i++ {
		b.Publish(TableTasks)
	}

	select {
	case <-sub.C():
	case <-time.After(time.Second):
		t.Fatal("no signal delivered")
	}

	select {
	case <-sub.C():
		t.Fatal("expected signals to coalesce into one")
	default:
	}
}

func TestPublishIsPerTable(t *testing.T) {
	b := New()
	tasks := b.Subscribe(TableTasks)
	projects := b.Subscribe(TableProjects)
	defer b.Unsubscribe(tasks)
	defer b.Unsubscribe(projects)

	b.Publish(TableTasks)

	select {
	case <-tasks.C():
	case <-time.After(time.Second):
		t.Fatal("tasks subscriber got no signal")
	}

	select {
	case <-projects.C():
		t.Fatal("projects subscriber got a tasks signal")
	default:
	}
}

func TestMultipleSubscribersEachGetSignal(t *testing.T) {
	b := New()
	a := b.Subscribe(TableTasks)
	c := b.Subscribe(TableTasks)
	defer b.Unsubscribe(a)
	defer b.Unsubscribe(c)

	b.Publish(TableTasks)

	for _, sub := range []*Subscription{a, c} {
		select {
		case <-sub.C():
		case <-time.After(time.Second):
			t.Fatal("subscriber got no signal")
		}
	}
}

func TestUnsubscribe(t *testing.T) {
	b := New()
	sub := b.Subscribe(TableTasks)

	if n := b.SubscriberCount(TableTasks); n != 1 {
		t.Fatalf("SubscriberCount = %d, want 1", n)
	}

	b.Unsubscribe(sub)
	if n := b.SubscriberCount(TableTasks); n != 0 {
		t.Fatalf("SubscriberCount after unsubscribe = %d, want 0", n)
	}

	// Publishing to an empty table never blocks.
	b.Publish(TableTasks)

	// Double unsubscribe is a no-op.
	b.Unsubscribe(sub)
}
