// Package mongostore keeps goals in a users collection and day entries in a
// dayEntries collection, and watches both through change streams. Multi
// document writes need a replica set for transactions.
package mongostore

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/emilstricker/regnemetoden/internal/clock"
	"github.com/emilstricker/regnemetoden/internal/day"
	"github.com/emilstricker/regnemetoden/internal/plan"
	"github.com/emilstricker/regnemetoden/internal/store"
)

const (
	usersCollection = "users"
	daysCollection  = "dayEntries"
	connectTimeout  = 10 * time.Second
)

type userDoc struct {
	ID      string     `bson:"_id"`
	Goal    *plan.Goal `bson:"weightLossGoal"`
	Pending *plan.Goal `bson:"pendingGoal"`
}

type dayDoc struct {
	ID        string `bson:"_id"`
	UserID    string `bson:"userId"`
	Day       string `bson:"day"`
	day.Entry `bson:",inline"`
}

func dayID(userID, key string) string {
	return userID + "/" + key
}

// Store is a store.Store on MongoDB.
type Store struct {
	client *mongo.Client
	users  *mongo.Collection
	days   *mongo.Collection
}

var _ store.Store = (*Store)(nil)

// Connect dials uri, pings the server and opens the database.
func Connect(ctx context.Context, uri, database string) (*Store, error) {
	ctx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, store.Fail("connect mongo", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, store.Fail("ping mongo", err)
	}

	db := client.Database(database)
	s := &Store{client: client, users: db.Collection(usersCollection), days: db.Collection(daysCollection)}

	_, err = s.days.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "userId", Value: 1}, {Key: "day", Value: 1}},
	})
	if err != nil {
		_ = client.Disconnect(context.Background())
		return nil, store.Fail("create indexes", err)
	}
	return s, nil
}

func (s *Store) loadUser(ctx context.Context, op, userID string) (userDoc, error) {
	var u userDoc
	err := s.users.FindOne(ctx, bson.M{"_id": userID}).Decode(&u)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return userDoc{ID: userID}, nil
	}
	if err != nil {
		return userDoc{}, store.Fail(op, err)
	}
	u.Goal = localGoal(u.Goal)
	u.Pending = localGoal(u.Pending)
	return u, nil
}

// localGoal moves decoded times back to local time; BSON dates are UTC and
// day keys are local calendar days.
func localGoal(g *plan.Goal) *plan.Goal {
	if g == nil {
		return nil
	}
	g.StartDate = g.StartDate.Local()
	g.UpdatedAt = g.UpdatedAt.Local()
	if g.Baseline != nil {
		b := localEntry(*g.Baseline)
		g.Baseline = &b
	}
	return g
}

func localEntry(e day.Entry) day.Entry {
	e.Date = e.Date.Local()
	e.UpdatedAt = e.UpdatedAt.Local()
	if e.FoodEntries == nil {
		e.FoodEntries = []day.FoodEntry{}
	}
	for i := range e.FoodEntries {
		e.FoodEntries[i].Time = e.FoodEntries[i].Time.Local()
	}
	return e
}

func (s *Store) setField(ctx context.Context, userID, field string, value any) error {
	_, err := s.users.UpdateOne(ctx,
		bson.M{"_id": userID},
		bson.M{"$set": bson.M{field: value}},
		options.Update().SetUpsert(true),
	)
	return err
}

func (s *Store) LoadGoal(ctx context.Context, userID string) (*plan.Goal, error) {
	u, err := s.loadUser(ctx, "load goal", userID)
	return u.Goal, err
}

func (s *Store) SaveGoal(ctx context.Context, userID string, g plan.Goal) error {
	g.UpdatedAt = time.Now()
	return store.Fail("save goal", s.setField(ctx, userID, "weightLossGoal", g))
}

func (s *Store) DeleteGoal(ctx context.Context, userID string) error {
	return store.Fail("delete goal", s.setField(ctx, userID, "weightLossGoal", nil))
}

func (s *Store) LoadPendingGoal(ctx context.Context, userID string) (*plan.Goal, error) {
	u, err := s.loadUser(ctx, "load pending goal", userID)
	return u.Pending, err
}

func (s *Store) SavePendingGoal(ctx context.Context, userID string, g plan.Goal) error {
	g.UpdatedAt = time.Now()
	return store.Fail("save pending goal", s.setField(ctx, userID, "pendingGoal", g))
}

func (s *Store) DeletePendingGoal(ctx context.Context, userID string) error {
	return store.Fail("delete pending goal", s.setField(ctx, userID, "pendingGoal", nil))
}

// PromotePending is a single-document update, which MongoDB applies
// atomically without a transaction.
func (s *Store) PromotePending(ctx context.Context, userID string, g plan.Goal) error {
	g.UpdatedAt = time.Now()
	_, err := s.users.UpdateOne(ctx,
		bson.M{"_id": userID},
		bson.M{"$set": bson.M{"weightLossGoal": g, "pendingGoal": nil}},
		options.Update().SetUpsert(true),
	)
	return store.Fail("promote pending goal", err)
}

func (s *Store) LoadDayEntries(ctx context.Context, userID string) ([]day.Entry, error) {
	cur, err := s.days.Find(ctx, bson.M{"userId": userID}, options.Find().SetSort(bson.D{{Key: "day", Value: 1}}))
	if err != nil {
		return nil, store.Fail("load day entries", err)
	}
	var docs []dayDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, store.Fail("load day entries", err)
	}

	entries := make([]day.Entry, 0, len(docs))
	for _, d := range docs {
		entries = append(entries, localEntry(d.Entry))
	}
	return entries, nil
}

func (s *Store) saveDay(ctx context.Context, userID string, e day.Entry) error {
	e.Date = clock.StartOfDay(e.Date)
	e.UpdatedAt = time.Now()
	key := e.Key()
	doc := dayDoc{ID: dayID(userID, key), UserID: userID, Day: key, Entry: e}

	_, err := s.days.ReplaceOne(ctx, bson.M{"_id": doc.ID}, doc, options.Replace().SetUpsert(true))
	return err
}

func (s *Store) SaveDayEntry(ctx context.Context, userID string, e day.Entry) error {
	return store.Fail("save day entry", s.saveDay(ctx, userID, e))
}

func (s *Store) SaveCapture(ctx context.Context, userID string, pending plan.Goal, e day.Entry) error {
	pending.UpdatedAt = time.Now()
	err := s.transaction(ctx, func(sc mongo.SessionContext) error {
		if err := s.saveDay(sc, userID, e); err != nil {
			return err
		}
		return s.setField(sc, userID, "pendingGoal", pending)
	})
	return store.Fail("save day-zero capture", err)
}

func (s *Store) DeleteAllDayEntries(ctx context.Context, userID string) error {
	_, err := s.days.DeleteMany(ctx, bson.M{"userId": userID})
	return store.Fail("delete day entries", err)
}

func (s *Store) RollbackPending(ctx context.Context, userID string, since time.Time, restore *day.Entry) error {
	err := s.transaction(ctx, func(sc mongo.SessionContext) error {
		if err := s.setField(sc, userID, "pendingGoal", nil); err != nil {
			return err
		}
		_, err := s.days.DeleteMany(sc, bson.M{"userId": userID, "day": bson.M{"$gte": day.Key(since)}})
		if err != nil || restore == nil {
			return err
		}
		return s.saveDay(sc, userID, *restore)
	})
	return store.Fail("roll back pending goal", err)
}

func (s *Store) ResetPlan(ctx context.Context, userID string) error {
	err := s.transaction(ctx, func(sc mongo.SessionContext) error {
		_, err := s.users.UpdateOne(sc,
			bson.M{"_id": userID},
			bson.M{"$set": bson.M{"weightLossGoal": nil, "pendingGoal": nil}},
		)
		if err != nil {
			return err
		}
		_, err = s.days.DeleteMany(sc, bson.M{"userId": userID})
		return err
	})
	return store.Fail("reset plan", err)
}

func (s *Store) transaction(ctx context.Context, fn func(sc mongo.SessionContext) error) error {
	sess, err := s.client.StartSession()
	if err != nil {
		return fmt.Errorf("start session: %w", err)
	}
	defer sess.EndSession(ctx)

	_, err = sess.WithTransaction(ctx, func(sc mongo.SessionContext) (any, error) {
		return nil, fn(sc)
	})
	return err
}

// Watch opens change streams on both collections before reading the initial
// snapshot, so no change between the two is lost.
func (s *Store) Watch(parent context.Context, userID string) (<-chan store.Event, error) {
	ctx, cancel := context.WithCancel(parent)
	userStream, err := s.users.Watch(ctx, mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"documentKey._id": userID}}},
	})
	if err != nil {
		cancel()
		return nil, store.Fail("watch goals", err)
	}
	dayStream, err := s.days.Watch(ctx, mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"documentKey._id": bson.M{"$regex": "^" + regexp.QuoteMeta(userID+"/")}}}},
	})
	if err != nil {
		userStream.Close(ctx)
		cancel()
		return nil, store.Fail("watch day entries", err)
	}

	snap, err := store.Load(ctx, s, userID)
	if err != nil {
		userStream.Close(ctx)
		dayStream.Close(ctx)
		cancel()
		return nil, err
	}

	out := make(chan store.Event, store.HubBuffer)
	for _, k := range store.Kinds {
		out <- store.Event{Kind: k, Snapshot: snap}
	}

	changes := make(chan store.Kind)
	go pump(ctx, userStream, store.KindGoal, changes)
	go pump(ctx, dayStream, store.KindEntries, changes)

	go func() {
		defer close(out)
		defer cancel()
		defer userStream.Close(context.Background())
		defer dayStream.Close(context.Background())
		for {
			select {
			case <-ctx.Done():
				return
			case kind := <-changes:
				if !s.emit(ctx, userID, kind, out) {
					return
				}
			}
		}
	}()
	return out, nil
}

// pump forwards one signal per change until the stream ends.
func pump(ctx context.Context, cs *mongo.ChangeStream, kind store.Kind, changes chan<- store.Kind) {
	for cs.Next(ctx) {
		select {
		case changes <- kind:
		case <-ctx.Done():
			return
		}
	}
}

// emit reloads the changed part and sends it. A user document change may
// touch either goal slot, so both are sent. It reports false when the
// subscriber is gone or too slow.
func (s *Store) emit(ctx context.Context, userID string, kind store.Kind, out chan<- store.Event) bool {
	var snap store.Snapshot
	kinds := []store.Kind{kind}
	switch kind {
	case store.KindGoal:
		u, err := s.loadUser(ctx, "load goals", userID)
		if err != nil {
			return ctx.Err() == nil
		}
		snap.Goal, snap.Pending = u.Goal, u.Pending
		kinds = []store.Kind{store.KindGoal, store.KindPending}
	case store.KindEntries:
		entries, err := s.LoadDayEntries(ctx, userID)
		if err != nil {
			return ctx.Err() == nil
		}
		snap.Entries = entries
	}

	for _, k := range kinds {
		select {
		case out <- store.Event{Kind: k, Snapshot: snap}:
		default:
			return false
		}
	}
	return true
}

func (s *Store) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
	defer cancel()
	return s.client.Disconnect(ctx)
}
