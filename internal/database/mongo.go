package database

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"clubreg/entity"
	"clubreg/internal/config"
)

const (
	collectionMembers  = "members"
	collectionCounters = "counters"

	counterMembershipID = "membership_id"
)

type MongoDB struct {
	ctx           context.Context
	clientOptions *options.ClientOptions
	database      string
}

func NewMongoClient(conf *config.Config) *MongoDB {
	connectionUri := fmt.Sprintf("mongodb://%s:%s", conf.Mongo.Host, conf.Mongo.Port)
	clientOptions := options.Client().ApplyURI(connectionUri)
	if conf.Mongo.User != "" {
		clientOptions.SetAuth(options.Credential{
			Username:   conf.Mongo.User,
			Password:   conf.Mongo.Password,
			AuthSource: conf.Mongo.Database,
		})
	}
	client := &MongoDB{
		ctx:           context.Background(),
		clientOptions: clientOptions,
		database:      conf.Mongo.Database,
	}
	return client
}

func (m *MongoDB) connect() (*mongo.Client, error) {
	connection, err := mongo.Connect(m.ctx, m.clientOptions)
	if err != nil {
		return nil, fmt.Errorf("mongodb connect: %w", err)
	}
	return connection, nil
}

func (m *MongoDB) disconnect(connection *mongo.Client) {
	_ = connection.Disconnect(m.ctx)
}

// EnsureIndexes creates the uniqueness constraints the allocator and the
// registration flow rely on. membership_id is sparse: records imported
// without an id must not collide on the missing value.
func (m *MongoDB) EnsureIndexes() error {
	connection, err := m.connect()
	if err != nil {
		return err
	}
	defer m.disconnect(connection)

	collection := connection.Database(m.database).Collection(collectionMembers)
	_, err = collection.Indexes().CreateMany(m.ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "phone", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys:    bson.D{{Key: "membership_id", Value: 1}},
			Options: options.Index().SetUnique(true).SetSparse(true),
		},
	})
	if err != nil {
		return fmt.Errorf("mongodb create indexes: %w", err)
	}
	return nil
}

// classifyDuplicate maps a mongo duplicate-key error to the violated field.
// Returns nil when the error is not a duplicate-key failure.
func (m *MongoDB) classifyDuplicate(err error) error {
	if err == nil || !mongo.IsDuplicateKeyError(err) {
		return nil
	}
	msg := err.Error()
	if strings.Contains(msg, "phone") {
		return entity.ErrDuplicatePhone
	}
	if strings.Contains(msg, "membership_id") {
		return entity.ErrDuplicateMembershipID
	}
	return entity.ErrConstraint
}

// NextSequence atomically increments the membership id counter and returns
// the new value. The counter document is created on first use.
func (m *MongoDB) NextSequence() (int64, error) {
	connection, err := m.connect()
	if err != nil {
		return 0, err
	}
	defer m.disconnect(connection)

	collection := connection.Database(m.database).Collection(collectionCounters)
	filter := bson.D{{Key: "_id", Value: counterMembershipID}}
	update := bson.D{{Key: "$inc", Value: bson.D{{Key: "seq", Value: int64(1)}}}}
	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)

	var counter struct {
		Seq int64 `bson:"seq"`
	}
	err = collection.FindOneAndUpdate(m.ctx, filter, update, opts).Decode(&counter)
	if err != nil {
		return 0, fmt.Errorf("mongodb next sequence: %w", err)
	}
	return counter.Seq, nil
}

// SyncSequence raises the counter to at least target and returns the
// resulting value. The counter never moves backwards.
func (m *MongoDB) SyncSequence(target int64) (int64, error) {
	connection, err := m.connect()
	if err != nil {
		return 0, err
	}
	defer m.disconnect(connection)

	collection := connection.Database(m.database).Collection(collectionCounters)
	filter := bson.D{{Key: "_id", Value: counterMembershipID}}
	update := bson.D{{Key: "$max", Value: bson.D{{Key: "seq", Value: target}}}}
	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)

	var counter struct {
		Seq int64 `bson:"seq"`
	}
	err = collection.FindOneAndUpdate(m.ctx, filter, update, opts).Decode(&counter)
	if err != nil {
		return 0, fmt.Errorf("mongodb sync sequence: %w", err)
	}
	return counter.Seq, nil
}

// FindLatest returns the most recently created member, or nil when the
// collection is empty.
func (m *MongoDB) FindLatest() (*entity.Member, error) {
	connection, err := m.connect()
	if err != nil {
		return nil, err
	}
	defer m.disconnect(connection)

	collection := connection.Database(m.database).Collection(collectionMembers)
	opts := options.FindOne().SetSort(bson.D{{Key: "created_at", Value: -1}})
	var member entity.Member
	err = collection.FindOne(m.ctx, bson.D{}, opts).Decode(&member)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("mongodb find latest: %w", err)
	}
	return &member, nil
}

// InsertMember persists a new record. Duplicate-key failures are classified
// to the violated field so the allocator can tell a membership id collision
// from a phone race.
func (m *MongoDB) InsertMember(member *entity.Member) (*entity.Member, error) {
	connection, err := m.connect()
	if err != nil {
		return nil, err
	}
	defer m.disconnect(connection)

	collection := connection.Database(m.database).Collection(collectionMembers)
	result, err := collection.InsertOne(m.ctx, member)
	if err != nil {
		if dup := m.classifyDuplicate(err); dup != nil {
			return nil, dup
		}
		return nil, fmt.Errorf("mongodb insert member: %w", err)
	}
	if oid, ok := result.InsertedID.(primitive.ObjectID); ok {
		member.ID = oid
	}
	return member, nil
}

func (m *MongoDB) MemberByID(id string) (*entity.Member, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, fmt.Errorf("member %s: %w", id, entity.ErrNotFound)
	}
	return m.findOne(bson.D{{Key: "_id", Value: oid}})
}

func (m *MongoDB) MemberByPhone(phone string) (*entity.Member, error) {
	return m.findOne(bson.D{{Key: "phone", Value: phone}})
}

func (m *MongoDB) MemberByLogin(phone, membershipID string) (*entity.Member, error) {
	return m.findOne(bson.D{{Key: "phone", Value: phone}, {Key: "membership_id", Value: membershipID}})
}

func (m *MongoDB) findOne(filter bson.D) (*entity.Member, error) {
	connection, err := m.connect()
	if err != nil {
		return nil, err
	}
	defer m.disconnect(connection)

	collection := connection.Database(m.database).Collection(collectionMembers)
	var member entity.Member
	err = collection.FindOne(m.ctx, filter).Decode(&member)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, entity.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("mongodb find member: %w", err)
	}
	return &member, nil
}

// SetApproved transitions a record into approved in a single update.
func (m *MongoDB) SetApproved(id, membershipID string, approvedAt, expiry time.Time) (*entity.Member, error) {
	update := bson.D{{Key: "$set", Value: bson.D{
		{Key: "status", Value: entity.StatusApproved},
		{Key: "membership_id", Value: membershipID},
		{Key: "approved_at", Value: approvedAt},
		{Key: "expiry_date", Value: expiry},
		{Key: "updated_at", Value: time.Now().UTC()},
	}}}
	return m.updateByID(id, update)
}

// SetRejected transitions a record into rejected. No other fields change.
func (m *MongoDB) SetRejected(id string) (*entity.Member, error) {
	update := bson.D{{Key: "$set", Value: bson.D{
		{Key: "status", Value: entity.StatusRejected},
		{Key: "updated_at", Value: time.Now().UTC()},
	}}}
	return m.updateByID(id, update)
}

func (m *MongoDB) SetPaymentRef(id, sessionID string) error {
	update := bson.D{{Key: "$set", Value: bson.D{
		{Key: "payment_ref", Value: sessionID},
		{Key: "updated_at", Value: time.Now().UTC()},
	}}}
	_, err := m.updateByID(id, update)
	return err
}

func (m *MongoDB) updateByID(id string, update bson.D) (*entity.Member, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, fmt.Errorf("member %s: %w", id, entity.ErrNotFound)
	}

	connection, err := m.connect()
	if err != nil {
		return nil, err
	}
	defer m.disconnect(connection)

	collection := connection.Database(m.database).Collection(collectionMembers)
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var member entity.Member
	err = collection.FindOneAndUpdate(m.ctx, bson.D{{Key: "_id", Value: oid}}, update, opts).Decode(&member)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, entity.ErrNotFound
	}
	if err != nil {
		if dup := m.classifyDuplicate(err); dup != nil {
			return nil, dup
		}
		return nil, fmt.Errorf("mongodb update member: %w", err)
	}
	return &member, nil
}

// ConfirmPayment advances the record tied to a checkout session from
// payment_pending to pending_approval. Replayed webhook events find no
// matching document and report not found.
func (m *MongoDB) ConfirmPayment(sessionID string) (*entity.Member, error) {
	connection, err := m.connect()
	if err != nil {
		return nil, err
	}
	defer m.disconnect(connection)

	collection := connection.Database(m.database).Collection(collectionMembers)
	filter := bson.D{
		{Key: "payment_ref", Value: sessionID},
		{Key: "status", Value: entity.StatusPaymentPending},
	}
	update := bson.D{{Key: "$set", Value: bson.D{
		{Key: "status", Value: entity.StatusPendingApproval},
		{Key: "updated_at", Value: time.Now().UTC()},
	}}}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var member entity.Member
	err = collection.FindOneAndUpdate(m.ctx, filter, update, opts).Decode(&member)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, entity.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("mongodb confirm payment: %w", err)
	}
	return &member, nil
}

func (m *MongoDB) MembersByStatus(status entity.MemberStatus) ([]*entity.Member, error) {
	return m.findMany(bson.D{{Key: "status", Value: status}})
}

func (m *MongoDB) AllMembers() ([]*entity.Member, error) {
	return m.findMany(bson.D{})
}

func (m *MongoDB) findMany(filter bson.D) ([]*entity.Member, error) {
	connection, err := m.connect()
	if err != nil {
		return nil, err
	}
	defer m.disconnect(connection)

	collection := connection.Database(m.database).Collection(collectionMembers)
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	cursor, err := collection.Find(m.ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("mongodb find members: %w", err)
	}
	defer cursor.Close(m.ctx)

	var members []*entity.Member
	err = cursor.All(m.ctx, &members)
	if err != nil {
		return nil, fmt.Errorf("mongodb decode members: %w", err)
	}
	return members, nil
}
